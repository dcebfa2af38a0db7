package compose

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testStore is a minimal in-package ArtifactStore fixture.
type testStore struct {
	tables map[string]TableArtifact
	charts map[string]ChartArtifact
}

func (s *testStore) GetTable(name string) (TableArtifact, error) {
	a, ok := s.tables[name]
	if !ok {
		return TableArtifact{}, &NotFoundError{Kind: KindTable, Name: name}
	}
	return a, nil
}

func (s *testStore) GetChart(name string) (ChartArtifact, error) {
	a, ok := s.charts[name]
	if !ok {
		return ChartArtifact{}, &NotFoundError{Kind: KindChart, Name: name}
	}
	return a, nil
}

func TestCompose_PairedTableThenStandaloneChart(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Engine",
				Subsections: []Subsection{
					{
						Title:     "Summary",
						ShowTitle: true,
						Elements: []Element{
							{Type: ElementTable, ArtifactName: "wm_hours", Caption: "Hours by unit"},
							{Type: ElementChart, ArtifactName: "wm_trend", Caption: "Trend", CaptionClass: "full"},
						},
					},
				},
			},
		},
	}
	store := &testStore{
		tables: map[string]TableArtifact{
			"wm_hours": {Markup: "<table/>", HasChart: true},
		},
		charts: map[string]ChartArtifact{
			"wm_hours": {Image: "a.png"},
			"wm_trend": {Image: "b.png"},
		},
	}

	doc, err := Compose(report, store)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	want := &Document{
		Blocks: []Block{
			{Kind: BlockSectionHeading, Heading: &HeadingBlock{Text: "1. Engine", Level: 1, PageBreak: true}},
			{Kind: BlockSubsectionHeading, Heading: &HeadingBlock{Text: "1.1 Summary", Level: 2}},
			{Kind: BlockPairedTableChart, Paired: &PairedBlock{
				Table: TableBlock{Name: "wm_hours", Markup: "<table/>", Caption: "Table 1.1-1 - Hours by unit"},
				Chart: ChartBlock{Name: "wm_hours", Image: "a.png", Caption: "Figure 1.1-1 - Hours by unit"},
			}},
			{Kind: BlockSingleChart, Chart: &ChartBlock{
				Name: "wm_trend", Image: "b.png", Caption: "Figure 1.1-2 - Trend", CaptionClass: "full",
			}},
		},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("composed document mismatch (-want +got):\n%s", diff)
	}
}

func TestCompose_SubsectionLabelsFollowPosition(t *testing.T) {
	sub := func(title string) Subsection {
		return Subsection{Title: title, ShowTitle: true}
	}
	report := Report{
		Sections: []Section{
			{Title: "First", Subsections: []Subsection{sub("A"), sub("B")}},
			{Title: "Second", Subsections: []Subsection{sub("C"), sub("D")}},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	var headings []string
	for _, b := range doc.Blocks {
		if b.Kind == BlockSubsectionHeading {
			headings = append(headings, b.Heading.Text)
		}
	}
	want := []string{"1.1 A", "1.2 B", "2.1 C", "2.2 D"}
	if len(headings) != len(want) {
		t.Fatalf("expected %d subsection headings, got %d: %v", len(want), len(headings), headings)
	}
	for i := range want {
		if headings[i] != want[i] {
			t.Errorf("heading %d: expected %q, got %q", i, want[i], headings[i])
		}
	}
}

func TestCompose_TableNumbersIncrementWithinSubsection(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Data",
				Subsections: []Subsection{
					{
						Title:     "Tables",
						ShowTitle: true,
						Elements: []Element{
							{Type: ElementTable, ArtifactName: "t1", Caption: "One"},
							{Type: ElementTable, ArtifactName: "t2", Caption: "Two"},
							{Type: ElementTable, ArtifactName: "t3", Caption: "Three"},
						},
					},
				},
			},
		},
	}
	store := &testStore{tables: map[string]TableArtifact{
		"t1": {Markup: "<table>1</table>"},
		"t2": {Markup: "<table>2</table>"},
		"t3": {Markup: "<table>3</table>"},
	}}

	doc, err := Compose(report, store)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	want := []string{
		"Table 1.1-1 - One",
		"Table 1.1-2 - Two",
		"Table 1.1-3 - Three",
	}
	var got []string
	for _, b := range doc.Blocks {
		if b.Kind == BlockSingleTable {
			got = append(got, b.Table.Caption)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d table blocks, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("caption %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCompose_CountersResetAcrossSubsections(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Fleet",
				Subsections: []Subsection{
					{
						Title: "A", ShowTitle: true,
						Elements: []Element{{Type: ElementTable, ArtifactName: "t1", Caption: "First"}},
					},
					{
						Title: "B", ShowTitle: true,
						Elements: []Element{{Type: ElementTable, ArtifactName: "t1", Caption: "Again"}},
					},
				},
			},
		},
	}
	store := &testStore{tables: map[string]TableArtifact{"t1": {Markup: "<table/>"}}}

	doc, err := Compose(report, store)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	var captions []string
	for _, b := range doc.Blocks {
		if b.Kind == BlockSingleTable {
			captions = append(captions, b.Table.Caption)
		}
	}
	if len(captions) != 2 {
		t.Fatalf("expected 2 table blocks, got %d", len(captions))
	}
	if captions[0] != "Table 1.1-1 - First" {
		t.Errorf("subsection 1: expected counter to start at 1, got %q", captions[0])
	}
	if captions[1] != "Table 1.2-1 - Again" {
		t.Errorf("subsection 2: expected counter to restart at 1, got %q", captions[1])
	}
}

func TestCompose_UnpairedChartShiftsFigureNumbers(t *testing.T) {
	// A standalone chart consumes figure number 1, so the paired element that
	// follows gets table number 1 but figure number 2.
	report := Report{
		Sections: []Section{
			{
				Title: "Mixed",
				Subsections: []Subsection{
					{
						Title: "S", ShowTitle: true,
						Elements: []Element{
							{Type: ElementChart, ArtifactName: "solo", Caption: "Alone"},
							{Type: ElementTable, ArtifactName: "paired", Caption: "Together"},
						},
					},
				},
			},
		},
	}
	store := &testStore{
		tables: map[string]TableArtifact{"paired": {Markup: "<table/>", HasChart: true}},
		charts: map[string]ChartArtifact{
			"solo":   {Image: "solo.png"},
			"paired": {Image: "paired.png"},
		},
	}

	doc, err := Compose(report, store)
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	var paired *PairedBlock
	for _, b := range doc.Blocks {
		if b.Kind == BlockPairedTableChart {
			paired = b.Paired
		}
	}
	if paired == nil {
		t.Fatalf("expected a paired block, got none in %d blocks", len(doc.Blocks))
	}
	if paired.Table.Caption != "Table 1.1-1 - Together" {
		t.Errorf("expected table number 1, got %q", paired.Table.Caption)
	}
	if paired.Chart.Caption != "Figure 1.1-2 - Together" {
		t.Errorf("expected figure number 2 after the standalone chart, got %q", paired.Chart.Caption)
	}
}

func TestCompose_PictureNumberingRestartsPerGroup(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Photos",
				Subsections: []Subsection{
					{
						Elements: []Element{
							{Type: ElementPictures, Images: []string{"a.jpg", "b.jpg", "c.jpg"}},
							{Type: ElementPictures, Images: []string{"d.jpg", "e.jpg"}},
						},
					},
				},
			},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	var captions []string
	for _, b := range doc.Blocks {
		if b.Kind == BlockPicture {
			captions = append(captions, b.Picture.Caption)
		}
	}
	want := []string{"Figure 1", "Figure 2", "Figure 3", "Figure 1", "Figure 2"}
	if len(captions) != len(want) {
		t.Fatalf("expected %d picture blocks, got %d", len(want), len(captions))
	}
	for i := range want {
		if captions[i] != want[i] {
			t.Errorf("picture %d: expected %q, got %q", i, want[i], captions[i])
		}
	}
}

func TestCompose_HiddenTitleOmitsHeading(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Photos",
				Subsections: []Subsection{
					{
						Title:     "Hidden",
						ShowTitle: false,
						Elements:  []Element{{Type: ElementPictures, Images: []string{"a.jpg"}}},
					},
				},
			},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	for _, b := range doc.Blocks {
		if b.Kind == BlockSubsectionHeading {
			t.Errorf("expected no subsection heading, got %q", b.Heading.Text)
		}
	}
	if len(doc.Blocks) != 2 {
		t.Errorf("expected section heading + picture, got %d blocks", len(doc.Blocks))
	}
}

func TestCompose_ParagraphOnlySubsectionIsLegal(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Intro",
				Subsections: []Subsection{
					{Title: "About", ShowTitle: true, Paragraph: "Some **markdown** text."},
				},
			},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	if len(doc.Blocks) != 3 {
		t.Fatalf("expected 3 blocks (section heading, subsection heading, paragraph), got %d", len(doc.Blocks))
	}
	if doc.Blocks[2].Kind != BlockParagraph {
		t.Errorf("expected paragraph block, got %s", doc.Blocks[2].Kind)
	}
	if doc.Blocks[2].Paragraph.Text != "Some **markdown** text." {
		t.Errorf("paragraph text mangled: %q", doc.Blocks[2].Paragraph.Text)
	}
}

func TestCompose_PageBreakDirectives(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Breaks",
				Subsections: []Subsection{
					{Title: "Plain", ShowTitle: true},
					{Title: "Forced", ShowTitle: true, ForcePageBreak: true},
				},
			},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err != nil {
		t.Fatalf("Compose returned error: %v", err)
	}

	if !doc.Blocks[0].Heading.PageBreak {
		t.Errorf("section heading must always carry a page break")
	}
	if doc.Blocks[1].Heading.PageBreak {
		t.Errorf("subsection without forcePageBreak should not carry a page break")
	}
	if !doc.Blocks[2].Heading.PageBreak {
		t.Errorf("subsection with forcePageBreak should carry a page break")
	}
}

func TestCompose_IdenticalInputsComposeIdentically(t *testing.T) {
	report := Report{
		Title: "Weekly",
		Sections: []Section{
			{
				Title: "Engine",
				Subsections: []Subsection{
					{
						Title: "Summary", ShowTitle: true, Paragraph: "Overview.",
						Elements: []Element{
							{Type: ElementTable, ArtifactName: "wm_hours", Caption: "Hours"},
							{Type: ElementPictures, Images: []string{"p1.jpg"}},
						},
					},
				},
			},
		},
	}
	store := &testStore{
		tables: map[string]TableArtifact{"wm_hours": {Markup: "<table/>", HasChart: true}},
		charts: map[string]ChartArtifact{"wm_hours": {Image: "a.png"}},
	}

	first, err := Compose(report, store)
	if err != nil {
		t.Fatalf("first Compose returned error: %v", err)
	}
	second, err := Compose(report, store)
	if err != nil {
		t.Fatalf("second Compose returned error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("identical inputs composed differently (-first +second):\n%s", diff)
	}
}

func TestCompose_UnknownTableArtifact(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Broken",
				Subsections: []Subsection{
					{Elements: []Element{{Type: ElementTable, ArtifactName: "missing", Caption: "X"}}},
				},
			},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err == nil {
		t.Fatalf("expected error for unregistered artifact, got document with %d blocks", len(doc.Blocks))
	}
	if doc != nil {
		t.Errorf("expected nil document on failure, got %d blocks", len(doc.Blocks))
	}
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing") {
		t.Errorf("error should name the artifact: %v", err)
	}
}

func TestCompose_UnknownChartArtifact(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Broken",
				Subsections: []Subsection{
					{Elements: []Element{{Type: ElementChart, ArtifactName: "ghost", Caption: "X"}}},
				},
			},
		},
	}

	_, err := Compose(report, &testStore{})
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.Kind != KindChart {
		t.Errorf("expected chart kind, got %s", nf.Kind)
	}
}

func TestCompose_PairedChartMissingIsDistinguished(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Broken",
				Subsections: []Subsection{
					{Elements: []Element{{Type: ElementTable, ArtifactName: "lonely", Caption: "X"}}},
				},
			},
		},
	}
	store := &testStore{tables: map[string]TableArtifact{"lonely": {Markup: "<table/>", HasChart: true}}}

	_, err := Compose(report, store)
	if err == nil {
		t.Fatalf("expected error for missing companion chart")
	}
	var pm *PairedArtifactMissingError
	if !errors.As(err, &pm) {
		t.Fatalf("expected PairedArtifactMissingError, got %v", err)
	}
	if pm.Name != "lonely" {
		t.Errorf("error should carry the table name, got %q", pm.Name)
	}
	if IsNotFound(err) {
		t.Errorf("paired-missing must be distinguishable from plain not-found")
	}
}

func TestCompose_MalformedDescriptorRejectedBeforeLookup(t *testing.T) {
	// The store knows nothing; if validation ran after lookup this would be a
	// not-found error instead of a descriptor error.
	report := Report{
		Sections: []Section{
			{
				Title: "Bad",
				Subsections: []Subsection{
					{Elements: []Element{{Type: "video", ArtifactName: "clip"}}},
				},
			},
		},
	}

	doc, err := Compose(report, &testStore{})
	if err == nil {
		t.Fatalf("expected descriptor error, got document with %d blocks", len(doc.Blocks))
	}
	if !IsDescriptor(err) {
		t.Errorf("expected a descriptor error, got %v", err)
	}
	if !strings.Contains(err.Error(), "video") {
		t.Errorf("error should name the unknown type: %v", err)
	}
}
