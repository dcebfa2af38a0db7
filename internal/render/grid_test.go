package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fleetMarkup = `<table>
  <thead>
    <tr><th>Unit</th><th>Hours</th></tr>
  </thead>
  <tbody>
    <tr><td>Alpha</td><td>120</td></tr>
    <tr><td>Bravo</td><td>95</td></tr>
  </tbody>
</table>`

func TestParseGridExtractsCells(t *testing.T) {
	grid, err := ParseGrid(fleetMarkup)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	want := [][]string{
		{"Unit", "Hours"},
		{"Alpha", "120"},
		{"Bravo", "95"},
	}
	if diff := cmp.Diff(want, grid.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if grid.HeaderRows != 1 {
		t.Errorf("HeaderRows = %d, want 1", grid.HeaderRows)
	}
}

func TestParseGridHeaderWithoutThead(t *testing.T) {
	grid, err := ParseGrid(`<table><tr><th>A</th><th>B</th></tr><tr><td>1</td><td>2</td></tr></table>`)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	if grid.HeaderRows != 1 {
		t.Errorf("HeaderRows = %d, want 1", grid.HeaderRows)
	}
	if len(grid.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2", len(grid.Rows))
	}
}

func TestParseGridNoHeader(t *testing.T) {
	grid, err := ParseGrid(`<table><tr><td>1</td></tr><tr><th>late</th></tr></table>`)
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	// A th row after body rows does not count as a header.
	if grid.HeaderRows != 0 {
		t.Errorf("HeaderRows = %d, want 0", grid.HeaderRows)
	}
}

func TestParseGridCollapsesWhitespace(t *testing.T) {
	grid, err := ParseGrid("<table><tr><td>  spread\n  <b>over</b>\n  lines  </td></tr></table>")
	if err != nil {
		t.Fatalf("ParseGrid: %v", err)
	}
	if got := grid.Rows[0][0]; got != "spread over lines" {
		t.Errorf("cell = %q, want %q", got, "spread over lines")
	}
}

func TestParseGridRejectsNonTable(t *testing.T) {
	_, err := ParseGrid(`<div>not a table</div>`)
	if err == nil {
		t.Fatal("expected error for markup without a table")
	}
	if !strings.Contains(err.Error(), "<table>") {
		t.Errorf("error = %q, want mention of <table>", err)
	}
}

func TestParseGridRejectsEmptyTable(t *testing.T) {
	if _, err := ParseGrid(`<table></table>`); err == nil {
		t.Fatal("expected error for table without rows")
	}
}

func TestValidateMarkup(t *testing.T) {
	if err := ValidateMarkup(fleetMarkup); err != nil {
		t.Errorf("ValidateMarkup on good markup: %v", err)
	}
	if err := ValidateMarkup(`<span>nope</span>`); err == nil {
		t.Error("ValidateMarkup accepted markup without a table")
	}
}

func TestGridCols(t *testing.T) {
	grid := &Grid{Rows: [][]string{{"a"}, {"b", "c", "d"}, {"e", "f"}}}
	if got := grid.Cols(); got != 3 {
		t.Errorf("Cols() = %d, want 3", got)
	}
}
