package render

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fumiama/go-docx"
	"github.com/fumiama/imgsz"

	"github.com/dgallion1/reportforge/internal/compose"
)

// DOCX renders a composed document as a Word file.
//
// Charts and pictures are embedded from their byte payloads when present.
// Blocks that carry only an image reference are resolved against ImageDir;
// without it the render fails rather than emit a document with holes.
// Paired blocks are laid out sequentially, table then chart, since Word
// flows them onto the same page anyway.
type DOCX struct {
	ImageDir string
}

func NewDOCX() *DOCX { return &DOCX{} }

func (d *DOCX) Format() Format { return FormatDOCX }

// Word run sizes are half-points.
const (
	sizeTitle             = "40"
	sizeSectionHeading    = "32"
	sizeSubsectionHeading = "26"
	sizeCaption           = "18"
	captionColor          = "595959"
	tableWidthTwips       = 9026
)

func (d *DOCX) Render(doc *compose.Document, w io.Writer) error {
	out := docx.New().WithDefaultTheme()
	hasContent := false
	if doc.Title != "" {
		p := out.AddParagraph()
		p.Justification("center")
		p.AddText(doc.Title).Size(sizeTitle).Bold()
		hasContent = true
	}
	for _, b := range doc.Blocks {
		if err := d.writeBlock(out, b, &hasContent); err != nil {
			return err
		}
	}
	if _, err := out.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func (d *DOCX) writeBlock(out *docx.Docx, b compose.Block, hasContent *bool) error {
	switch b.Kind {
	case compose.BlockSectionHeading, compose.BlockSubsectionHeading:
		// A break before the very first content would open with a blank page.
		if b.Heading.PageBreak && *hasContent {
			out.AddParagraph().AddPageBreaks()
		}
		size := sizeSectionHeading
		if b.Heading.Level == 2 {
			size = sizeSubsectionHeading
		}
		out.AddParagraph().AddText(b.Heading.Text).Size(size).Bold()

	case compose.BlockParagraph:
		out.AddParagraph().AddText(b.Paragraph.Text)

	case compose.BlockSingleTable:
		if err := d.writeTable(out, b.Table); err != nil {
			return err
		}

	case compose.BlockSingleChart:
		cb := b.Chart
		if err := d.writeImage(out, fmt.Sprintf("chart %q", cb.Name), cb.Image, cb.Data, cb.Caption); err != nil {
			return err
		}

	case compose.BlockPairedTableChart:
		if err := d.writeTable(out, &b.Paired.Table); err != nil {
			return err
		}
		cb := b.Paired.Chart
		if err := d.writeImage(out, fmt.Sprintf("chart %q", cb.Name), cb.Image, cb.Data, cb.Caption); err != nil {
			return err
		}

	case compose.BlockPicture:
		pic := b.Picture
		if err := d.writeImage(out, fmt.Sprintf("picture %q", pic.Image), pic.Image, nil, pic.Caption); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
	*hasContent = true
	return nil
}

func (d *DOCX) writeTable(out *docx.Docx, tb *compose.TableBlock) error {
	grid, err := ParseGrid(tb.Markup)
	if err != nil {
		return fmt.Errorf("table %q: %w", tb.Name, err)
	}
	writeCaption(out, tb.Caption)
	cols := grid.Cols()
	tbl := out.AddTable(len(grid.Rows), cols, tableWidthTwips, nil)
	for r, row := range grid.Rows {
		for c := 0; c < cols && c < len(row); c++ {
			run := tbl.TableRows[r].TableCells[c].AddParagraph().AddText(row[c])
			if r < grid.HeaderRows {
				run.Bold()
			}
		}
	}
	return nil
}

func (d *DOCX) writeImage(out *docx.Docx, label, ref string, data []byte, caption string) error {
	if len(data) == 0 {
		resolved, err := d.loadImage(ref)
		if err != nil {
			return fmt.Errorf("%s: %w", label, err)
		}
		data = resolved
	}
	if _, _, err := imgsz.DecodeSize(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%s: unsupported image data: %w", label, err)
	}
	p := out.AddParagraph()
	p.Justification("center")
	if _, err := p.AddInlineDrawing(data); err != nil {
		return fmt.Errorf("%s: embed image: %w", label, err)
	}
	if caption != "" {
		writeCaption(out, caption)
	}
	return nil
}

func (d *DOCX) loadImage(ref string) ([]byte, error) {
	if ref == "" {
		return nil, fmt.Errorf("no image data or reference")
	}
	if d.ImageDir == "" {
		return nil, fmt.Errorf("no image data for %q and no image directory configured", ref)
	}
	data, err := os.ReadFile(filepath.Join(d.ImageDir, filepath.Clean("/"+ref)))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func writeCaption(out *docx.Docx, text string) {
	p := out.AddParagraph()
	p.Justification("center")
	p.AddText(text).Size(sizeCaption).Italic().Color(captionColor)
}
