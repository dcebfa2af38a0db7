package render

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/dgallion1/reportforge/internal/compose"
)

// HTML renders a composed document as a standalone HTML page. Table
// markup is injected verbatim after validation; chart and picture blocks
// that carry byte payloads are embedded as data URIs, otherwise the image
// reference becomes the src attribute as-is.
type HTML struct {
	md goldmark.Markdown
}

func NewHTML() *HTML {
	return &HTML{md: goldmark.New()}
}

func (h *HTML) Format() Format { return FormatHTML }

const htmlStyle = `body { font-family: "Segoe UI", Arial, sans-serif; margin: 2em auto; max-width: 60em; color: #1a1a1a; }
h1 { font-size: 1.6em; border-bottom: 2px solid #444; padding-bottom: 0.2em; }
h2 { font-size: 1.25em; margin-top: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
th { background: #efefef; }
.caption { font-size: 0.85em; color: #555; font-style: italic; margin: 0.3em 0 1.2em; }
.figcaption_full { width: 100%; text-align: center; }
.paired { display: flex; gap: 1.5em; align-items: flex-start; }
.paired-cell { flex: 1 1 50%; }
.figure img { max-width: 100%; }
.page-break { page-break-after: always; break-after: page; }
`

func (h *HTML) Render(doc *compose.Document, w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	title := doc.Title
	if title == "" {
		title = "Report"
	}
	fmt.Fprintf(&sb, "<title>%s</title>\n", escapeHTML(title))
	sb.WriteString("<style>\n" + htmlStyle + "</style>\n</head>\n<body>\n")
	for _, b := range doc.Blocks {
		if err := h.writeBlock(&sb, b); err != nil {
			return err
		}
	}
	sb.WriteString("</body>\n</html>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func (h *HTML) writeBlock(sb *strings.Builder, b compose.Block) error {
	switch b.Kind {
	case compose.BlockSectionHeading, compose.BlockSubsectionHeading:
		hd := b.Heading
		if hd.PageBreak {
			sb.WriteString("<div class=\"page-break\"></div>\n")
		}
		tag := "h1"
		if hd.Level == 2 {
			tag = "h2"
		}
		fmt.Fprintf(sb, "<%s>%s</%s>\n", tag, escapeHTML(hd.Text), tag)

	case compose.BlockParagraph:
		sb.WriteString("<div class=\"prose\">\n")
		if err := h.md.Convert([]byte(b.Paragraph.Text), sb); err != nil {
			return fmt.Errorf("render paragraph: %w", err)
		}
		sb.WriteString("</div>\n")

	case compose.BlockSingleTable:
		return writeTableHTML(sb, b.Table, "")

	case compose.BlockSingleChart:
		return writeChartHTML(sb, b.Chart, "")

	case compose.BlockPairedTableChart:
		sb.WriteString("<div class=\"paired\">\n")
		if err := writeTableHTML(sb, &b.Paired.Table, "paired-cell"); err != nil {
			return err
		}
		if err := writeChartHTML(sb, &b.Paired.Chart, "paired-cell"); err != nil {
			return err
		}
		sb.WriteString("</div>\n")

	case compose.BlockPicture:
		pic := b.Picture
		sb.WriteString("<div class=\"figure\">\n")
		fmt.Fprintf(sb, "<img src=\"%s\" alt=\"%s\">\n", escapeHTML(pic.Image), escapeHTML(pic.Caption))
		fmt.Fprintf(sb, "<p class=\"caption\">%s</p>\n", escapeHTML(pic.Caption))
		sb.WriteString("</div>\n")

	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
	return nil
}

func writeTableHTML(sb *strings.Builder, tb *compose.TableBlock, extraClass string) error {
	if err := ValidateMarkup(tb.Markup); err != nil {
		return fmt.Errorf("table %q: %w", tb.Name, err)
	}
	class := "table-block"
	if extraClass != "" {
		class += " " + extraClass
	}
	fmt.Fprintf(sb, "<div class=\"%s\">\n", class)
	fmt.Fprintf(sb, "<p class=\"caption\">%s</p>\n", escapeHTML(tb.Caption))
	sb.WriteString(tb.Markup)
	if !strings.HasSuffix(tb.Markup, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("</div>\n")
	return nil
}

func writeChartHTML(sb *strings.Builder, cb *compose.ChartBlock, extraClass string) error {
	class := "figure"
	if extraClass != "" {
		class += " " + extraClass
	}
	fmt.Fprintf(sb, "<div class=\"%s\">\n", class)
	src := cb.Image
	if len(cb.Data) > 0 {
		mime := http.DetectContentType(cb.Data)
		src = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(cb.Data)
	}
	fmt.Fprintf(sb, "<img src=\"%s\" alt=\"%s\">\n", escapeHTML(src), escapeHTML(cb.Caption))
	capClass := "caption"
	if cb.CaptionClass != "" {
		capClass += " figcaption_" + cb.CaptionClass
	}
	fmt.Fprintf(sb, "<p class=\"%s\">%s</p>\n", escapeHTML(capClass), escapeHTML(cb.Caption))
	sb.WriteString("</div>\n")
	return nil
}

// escapeHTML escapes the characters that break text and attribute contexts.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
