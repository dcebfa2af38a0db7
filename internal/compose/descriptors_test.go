package compose

import (
	"strings"
	"testing"
)

func TestReportValidate_ValidReportPasses(t *testing.T) {
	report := Report{
		Sections: []Section{
			{
				Title: "Engine",
				Subsections: []Subsection{
					{
						Title: "Summary", ShowTitle: true,
						Elements: []Element{
							{Type: ElementTable, ArtifactName: "t", Caption: "c"},
							{Type: ElementChart, ArtifactName: "ch", Caption: "c"},
							{Type: ElementPictures, Images: []string{"a.jpg"}},
						},
					},
					{Title: "", ShowTitle: false}, // hidden title may be empty
				},
			},
		},
	}
	if err := report.Validate(); err != nil {
		t.Errorf("expected valid report, got %v", err)
	}
}

func TestReportValidate_EmptySectionTitle(t *testing.T) {
	report := Report{Sections: []Section{{Title: "   "}}}
	err := report.Validate()
	if err == nil {
		t.Fatalf("expected error for empty section title")
	}
	if !IsDescriptor(err) {
		t.Errorf("expected descriptor error, got %v", err)
	}
}

func TestReportValidate_ShownTitleMustBeNonEmpty(t *testing.T) {
	report := Report{
		Sections: []Section{
			{Title: "S", Subsections: []Subsection{{Title: "", ShowTitle: true}}},
		},
	}
	if err := report.Validate(); err == nil {
		t.Errorf("expected error for shown empty subsection title")
	}
}

func TestReportValidate_TableNeedsArtifactName(t *testing.T) {
	report := Report{
		Sections: []Section{
			{Title: "S", Subsections: []Subsection{
				{Elements: []Element{{Type: ElementTable, Caption: "c"}}},
			}},
		},
	}
	err := report.Validate()
	if err == nil {
		t.Fatalf("expected error for table without artifactName")
	}
	if !strings.Contains(err.Error(), "artifactName") {
		t.Errorf("error should mention the missing field: %v", err)
	}
}

func TestReportValidate_PicturesNeedImages(t *testing.T) {
	report := Report{
		Sections: []Section{
			{Title: "S", Subsections: []Subsection{
				{Elements: []Element{{Type: ElementPictures}}},
			}},
		},
	}
	if err := report.Validate(); err == nil {
		t.Errorf("expected error for pictures without images")
	}

	report.Sections[0].Subsections[0].Elements[0].Images = []string{"ok.jpg", " "}
	if err := report.Validate(); err == nil {
		t.Errorf("expected error for blank image reference")
	}
}

func TestReportValidate_UnknownTypeNamesElementPosition(t *testing.T) {
	report := Report{
		Sections: []Section{
			{Title: "Fleet", Subsections: []Subsection{
				{Elements: []Element{
					{Type: ElementPictures, Images: []string{"a.jpg"}},
					{Type: "gif", ArtifactName: "x"},
				}},
			}},
		},
	}
	err := report.Validate()
	if err == nil {
		t.Fatalf("expected error for unknown element type")
	}
	msg := err.Error()
	if !strings.Contains(msg, "element 2") {
		t.Errorf("error should locate the element: %q", msg)
	}
	if !strings.Contains(msg, `section 1 "Fleet"`) {
		t.Errorf("error should locate the section: %q", msg)
	}
}

func TestReportValidate_MissingTypeRejected(t *testing.T) {
	report := Report{
		Sections: []Section{
			{Title: "S", Subsections: []Subsection{
				{Elements: []Element{{ArtifactName: "x"}}},
			}},
		},
	}
	err := report.Validate()
	if err == nil {
		t.Fatalf("expected error for element without type")
	}
	if !strings.Contains(err.Error(), "type is missing") {
		t.Errorf("unexpected message: %v", err)
	}
}
