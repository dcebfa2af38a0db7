package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Grid is the cell matrix extracted from table markup. HeaderRows counts
// the leading rows whose cells all came from <th> or a <thead> section.
type Grid struct {
	Rows       [][]string
	HeaderRows int
}

// Cols returns the widest row length.
func (g *Grid) Cols() int {
	cols := 0
	for _, row := range g.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return cols
}

// ParseGrid extracts the cell text from pre-rendered table markup. The
// fragment must contain a <table> element with at least one row; nested
// markup inside cells is flattened to text with whitespace collapsed.
func ParseGrid(markup string) (*Grid, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse table markup: %w", err)
	}
	table := findElement(root, "table")
	if table == nil {
		return nil, fmt.Errorf("table markup has no <table> element")
	}

	grid := &Grid{}
	var walk func(n *html.Node, inHead bool)
	walk = func(n *html.Node, inHead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				walk(c, true)
			case "tbody", "tfoot":
				walk(c, false)
			case "tr":
				row, header := parseRow(c)
				// Header rows only count while contiguous from the top.
				if (header || inHead) && len(grid.Rows) == grid.HeaderRows {
					grid.HeaderRows++
				}
				grid.Rows = append(grid.Rows, row)
			}
		}
	}
	walk(table, false)

	if len(grid.Rows) == 0 {
		return nil, fmt.Errorf("table markup has no rows")
	}
	return grid, nil
}

// ValidateMarkup checks that markup parses and contains a table with at
// least one row. Artifact writes run this before accepting table markup.
func ValidateMarkup(markup string) error {
	_, err := ParseGrid(markup)
	return err
}

// parseRow returns the row's cell texts and whether every cell is a <th>.
func parseRow(tr *html.Node) ([]string, bool) {
	var cells []string
	header := true
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			cells = append(cells, cellText(c))
		case "td":
			header = false
			cells = append(cells, cellText(c))
		}
	}
	if len(cells) == 0 {
		header = false
	}
	return cells, header
}

// cellText flattens a cell's subtree to text with whitespace collapsed.
func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// findElement returns the first element named tag in depth-first order.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}
