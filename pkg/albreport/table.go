package albreport

// ResultTable is one named aggregation output: a fixed column schema
// and an ordered list of rows. Tables are built in full by the
// aggregator, never mutated afterwards, and consumed once by the
// report writer.
type ResultTable struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NumRows returns the number of data rows (excluding the header).
func (t *ResultTable) NumRows() int {
	return len(t.Rows)
}
