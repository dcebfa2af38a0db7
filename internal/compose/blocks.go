package compose

// BlockKind identifies one kind of composed output block.
type BlockKind string

const (
	BlockSectionHeading    BlockKind = "section_heading"
	BlockSubsectionHeading BlockKind = "subsection_heading"
	BlockParagraph         BlockKind = "paragraph"
	BlockSingleTable       BlockKind = "single_table"
	BlockSingleChart       BlockKind = "single_chart"
	BlockPairedTableChart  BlockKind = "paired_table_chart"
	BlockPicture           BlockKind = "picture"
)

// Block is one unit of composed output. Kind selects which payload pointer is
// set. Captions and labels are final text; renderers never renumber.
type Block struct {
	Kind      BlockKind       `json:"kind"`
	Heading   *HeadingBlock   `json:"heading,omitempty"`
	Paragraph *ParagraphBlock `json:"paragraph,omitempty"`
	Table     *TableBlock     `json:"table,omitempty"`
	Chart     *ChartBlock     `json:"chart,omitempty"`
	Paired    *PairedBlock    `json:"paired,omitempty"`
	Picture   *PictureBlock   `json:"picture,omitempty"`
}

// HeadingBlock is a section or subsection heading.
type HeadingBlock struct {
	Text      string `json:"text"`      // e.g. "1. Engine" or "1.1 Summary"
	Level     int    `json:"level"`     // 1 = section, 2 = subsection
	PageBreak bool   `json:"pageBreak"` // start a new page before this heading
}

// ParagraphBlock is free text (Markdown) introducing a subsection.
type ParagraphBlock struct {
	Text string `json:"text"`
}

// TableBlock is a full-width pre-rendered table with its computed caption.
type TableBlock struct {
	Name    string `json:"name"`
	Markup  string `json:"markup"`
	Caption string `json:"caption"`
}

// ChartBlock is a chart image with its computed caption.
type ChartBlock struct {
	Name         string `json:"name"`
	Image        string `json:"image"`
	Data         []byte `json:"-"`
	Caption      string `json:"caption"`
	CaptionClass string `json:"captionClass,omitempty"`
}

// PairedBlock is a two-column layout: table on the left, its companion chart
// on the right. Both halves share the subsection label in their captions.
type PairedBlock struct {
	Table TableBlock `json:"table"`
	Chart ChartBlock `json:"chart"`
}

// PictureBlock is one photo from a picture group, numbered locally.
type PictureBlock struct {
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

// Document is the engine's output: the ordered block tree for one report.
// It is immutable once returned.
type Document struct {
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks"`
}
