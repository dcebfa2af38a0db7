// Package compose assembles pre-rendered artifacts into an ordered, numbered
// block tree: sections, subsections, and content elements become heading,
// paragraph, table, chart, and picture blocks with deterministic per-subsection
// numbering. Composition is a pure tree-walk: no I/O, no shared state, no
// partial output on failure.
package compose

import "fmt"

// Compose builds the output document for report against store. Descriptors
// are validated first; any unresolved artifact aborts the whole composition.
func Compose(report Report, store ArtifactStore) (*Document, error) {
	if err := report.Validate(); err != nil {
		return nil, err
	}
	doc := &Document{Title: report.Title}
	for i, sec := range report.Sections {
		blocks, err := composeSection(sec, i+1, store)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, blocks...)
	}
	return doc, nil
}

// composeSection emits the numbered section heading, always tagged to start
// on a new page, followed by each subsection in order.
func composeSection(sec Section, i1 int, store ArtifactStore) ([]Block, error) {
	blocks := []Block{{
		Kind: BlockSectionHeading,
		Heading: &HeadingBlock{
			Text:      fmt.Sprintf("%d. %s", i1, sec.Title),
			Level:     1,
			PageBreak: true,
		},
	}}
	for i, sub := range sec.Subsections {
		sb, err := composeSubsection(sub, Label(i1, i+1), store)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, sb...)
	}
	return blocks, nil
}

// composeSubsection renders one subsection: optional heading, optional
// paragraph, then the elements in order against a fresh numbering context.
func composeSubsection(sub Subsection, label string, store ArtifactStore) ([]Block, error) {
	var blocks []Block
	if sub.ShowTitle {
		blocks = append(blocks, Block{
			Kind: BlockSubsectionHeading,
			Heading: &HeadingBlock{
				Text:      fmt.Sprintf("%s %s", label, sub.Title),
				Level:     2,
				PageBreak: sub.ForcePageBreak,
			},
		})
	}
	if sub.Paragraph != "" {
		blocks = append(blocks, Block{
			Kind:      BlockParagraph,
			Paragraph: &ParagraphBlock{Text: sub.Paragraph},
		})
	}
	var nums NumberingContext
	for _, el := range sub.Elements {
		eb, err := renderElement(el, label, &nums, store)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, eb...)
	}
	return blocks, nil
}

// renderElement turns one element into its output blocks, advancing the
// subsection's counters. A paired table+chart consumes one table number and
// one figure number in the same step.
func renderElement(el Element, label string, nums *NumberingContext, store ArtifactStore) ([]Block, error) {
	switch el.Type {
	case ElementTable:
		tab, err := store.GetTable(el.ArtifactName)
		if err != nil {
			return nil, err
		}
		if !tab.HasChart {
			n := nums.Next(CounterTable)
			return []Block{{Kind: BlockSingleTable, Table: &TableBlock{
				Name:    el.ArtifactName,
				Markup:  tab.Markup,
				Caption: tableCaption(label, n, el.Caption),
			}}}, nil
		}
		chart, err := store.GetChart(el.ArtifactName)
		if err != nil {
			if IsNotFound(err) {
				return nil, &PairedArtifactMissingError{Name: el.ArtifactName}
			}
			return nil, err
		}
		nTable := nums.Next(CounterTable)
		nChart := nums.Next(CounterChart)
		return []Block{{Kind: BlockPairedTableChart, Paired: &PairedBlock{
			Table: TableBlock{
				Name:    el.ArtifactName,
				Markup:  tab.Markup,
				Caption: tableCaption(label, nTable, el.Caption),
			},
			Chart: ChartBlock{
				Name:    el.ArtifactName,
				Image:   chart.Image,
				Data:    chart.Data,
				Caption: figureCaption(label, nChart, el.Caption),
			},
		}}}, nil

	case ElementChart:
		chart, err := store.GetChart(el.ArtifactName)
		if err != nil {
			return nil, err
		}
		n := nums.Next(CounterChart)
		return []Block{{Kind: BlockSingleChart, Chart: &ChartBlock{
			Name:         el.ArtifactName,
			Image:        chart.Image,
			Data:         chart.Data,
			Caption:      figureCaption(label, n, el.Caption),
			CaptionClass: el.CaptionClass,
		}}}, nil

	case ElementPictures:
		// Picture numbering is local to the group; every group restarts at 1.
		blocks := make([]Block, 0, len(el.Images))
		for j, img := range el.Images {
			blocks = append(blocks, Block{Kind: BlockPicture, Picture: &PictureBlock{
				Image:   img,
				Caption: fmt.Sprintf("Figure %d", j+1),
			}})
		}
		return blocks, nil

	default:
		return nil, &DescriptorError{
			Path:   fmt.Sprintf("element %q", el.ArtifactName),
			Reason: fmt.Sprintf("unknown element type %q", el.Type),
		}
	}
}

// Label formats a subsection's dotted position, e.g. Label(1, 2) == "1.2".
func Label(i1, i2 int) string {
	return fmt.Sprintf("%d.%d", i1, i2)
}

func tableCaption(label string, n int, caption string) string {
	return fmt.Sprintf("Table %s-%d - %s", label, n, caption)
}

func figureCaption(label string, n int, caption string) string {
	return fmt.Sprintf("Figure %s-%d - %s", label, n, caption)
}
