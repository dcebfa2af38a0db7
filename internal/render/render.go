// Package render serializes composed documents into deliverable formats.
//
// Renderers consume the block sequence produced by compose and never
// recompute numbering or captions; every label printed here was fixed at
// composition time.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/reportforge/internal/compose"
)

// Format identifies an output document format.
type Format string

const (
	FormatHTML Format = "html"
	FormatDOCX Format = "docx"
)

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string { return string(f) }

// Renderer writes a composed document to an output stream in one format.
type Renderer interface {
	Format() Format
	Render(doc *compose.Document, w io.Writer) error
}

// For returns a renderer for the named format.
func For(format Format) (Renderer, error) {
	switch format {
	case FormatHTML:
		return NewHTML(), nil
	case FormatDOCX:
		return NewDOCX(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// ParseFormats resolves format names, deduplicating while preserving
// order. An empty list defaults to HTML.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return []Format{FormatHTML}, nil
	}
	seen := make(map[Format]bool, len(names))
	out := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		switch f {
		case FormatHTML, FormatDOCX:
		default:
			return nil, fmt.Errorf("unsupported output format %q", name)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}
