package query

import "github.com/hupe1980/colgo/value"

// Result is a column-oriented query result: an ordered column-name list and
// row tuples aligned positionally to it. Absent values are value.Null(),
// distinguishable from every valid scalar.
type Result struct {
	Columns []string        `json:"columns"`
	Rows    [][]value.Value `json:"rows"`
}

// Len returns the number of result rows.
func (r *Result) Len() int { return len(r.Rows) }

// Ordinal returns the position of the named result column.
func (r *Result) Ordinal(name string) (int, bool) {
	for i, c := range r.Columns {
		if c == name {
			return i, true
		}
	}
	return 0, false
}

// Get returns the value at (row, column name). The second return is false if
// the column does not exist or the row is out of range.
func (r *Result) Get(row int, column string) (value.Value, bool) {
	ord, ok := r.Ordinal(column)
	if !ok || row < 0 || row >= len(r.Rows) {
		return value.Value{}, false
	}
	return r.Rows[row][ord], true
}
