package compose

// CounterKind selects which counter NumberingContext.Next advances.
type CounterKind int

const (
	CounterTable CounterKind = iota
	CounterChart
)

// NumberingContext issues table and figure numbers within one subsection.
// The zero value is ready to use; a fresh context is created at every
// subsection entry and never shared across subsections or requests.
type NumberingContext struct {
	tables int
	charts int
}

// Next increments the counter for kind and returns its new value. Counters
// start at zero, so the first call of each kind returns 1.
func (n *NumberingContext) Next(kind CounterKind) int {
	if kind == CounterChart {
		n.charts++
		return n.charts
	}
	n.tables++
	return n.tables
}
