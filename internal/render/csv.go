package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// GridFromCSV parses CSV records into a Grid. The first record is the
// header row; every record must have the same number of fields.
func GridFromCSV(r io.Reader) (*Grid, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no rows")
	}
	return &Grid{Rows: records, HeaderRows: 1}, nil
}

// Markup serializes the grid as table markup. Header rows become <th>
// cells inside <thead>, the rest <td> cells inside <tbody>.
func (g *Grid) Markup() string {
	header := g.HeaderRows
	if header > len(g.Rows) {
		header = len(g.Rows)
	}

	var sb strings.Builder
	sb.WriteString("<table>")
	if header > 0 {
		sb.WriteString("<thead>")
		for _, row := range g.Rows[:header] {
			writeMarkupRow(&sb, row, "th")
		}
		sb.WriteString("</thead>")
	}
	if header < len(g.Rows) {
		sb.WriteString("<tbody>")
		for _, row := range g.Rows[header:] {
			writeMarkupRow(&sb, row, "td")
		}
		sb.WriteString("</tbody>")
	}
	sb.WriteString("</table>")
	return sb.String()
}

func writeMarkupRow(sb *strings.Builder, cells []string, tag string) {
	sb.WriteString("<tr>")
	for _, cell := range cells {
		sb.WriteString("<" + tag + ">")
		sb.WriteString(escapeHTML(cell))
		sb.WriteString("</" + tag + ">")
	}
	sb.WriteString("</tr>")
}
