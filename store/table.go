package store

import (
	"sync"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/value"
)

// Data binds a table schema to one column store per column, a row counter and
// the reader-writer lock guarding all of it.
//
// Row and batch appends hold the lock exclusively for their whole duration;
// query execution holds it shared for the whole pipeline, so a query observes
// a single consistent snapshot of row count and column contents. The schema
// itself is immutable and needs no lock.
type Data struct {
	mu     sync.RWMutex
	schema *schema.Schema
	cols   []*Column
	rows   int
}

// NewData creates an empty table for the given schema.
func NewData(s *schema.Schema) *Data {
	cols := make([]*Column, s.Len())
	for i := range cols {
		cols[i] = NewColumn(s.Column(i))
	}
	return &Data{schema: s, cols: cols}
}

// Schema returns the immutable table schema.
func (d *Data) Schema() *schema.Schema { return d.schema }

// NumRows returns the current row count.
func (d *Data) NumRows() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rows
}

// Append appends one row given as a positional tuple in schema order.
// The whole row is validated before any column is touched, so a failing
// append leaves the row count and every column store unchanged.
func (d *Data) Append(row []value.Value) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.appendLocked(row)
}

// AppendBatch appends many rows while holding the write lock once for the
// whole batch. A failing row aborts the remainder of the batch; rows appended
// before the failure remain committed (the store is append-only, there is no
// batch rollback). It returns the number of rows appended.
func (d *Data) AppendBatch(rows [][]value.Value) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, row := range rows {
		if err := d.appendLocked(row); err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

func (d *Data) appendLocked(row []value.Value) error {
	if len(row) != len(d.cols) {
		return &ErrRowWidth{Expected: len(d.cols), Actual: len(row)}
	}
	for i, v := range row {
		if err := d.cols[i].Validate(v); err != nil {
			return err
		}
	}
	for i, v := range row {
		d.cols[i].appendUnchecked(v)
	}
	d.rows++
	return nil
}

// Read runs fn while holding the shared lock, giving it a consistent
// read-only view of the table. The lock is released on every exit path.
func (d *Data) Read(fn func(r Reader) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(Reader{d: d})
}

// Reader is a read-only view of a table, valid only inside Data.Read.
type Reader struct {
	d *Data
}

// Schema returns the table schema.
func (r Reader) Schema() *schema.Schema { return r.d.schema }

// NumRows returns the row count of the snapshot.
func (r Reader) NumRows() int { return r.d.rows }

// Column returns the column store at ordinal i.
func (r Reader) Column(i int) *Column { return r.d.cols[i] }

// DisableIndexes clears all bitmap indexes and suspends per-append
// maintenance. Used before bulk loads; pair with RebuildIndexes.
func (d *Data) DisableIndexes() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.cols {
		if c.index != nil {
			c.index.Disable()
		}
	}
}

// RebuildIndexes re-enables and reconstructs every bitmap index by scanning
// the column stores. Used once after bulk loads.
func (d *Data) RebuildIndexes() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.cols {
		if c.index != nil {
			c.index.Rebuild(c)
		}
	}
}

// ColumnStats describes one column of a table snapshot.
type ColumnStats struct {
	Name            string
	Type            schema.Type
	DistinctStrings int    // dictionary size, string columns only
	IndexedValues   int    // distinct indexed values, 0 if unindexed
	IndexBytes      uint64 // estimated bitmap memory, 0 if unindexed
}

// Stats describes a table snapshot.
type Stats struct {
	Rows    int
	Columns []ColumnStats
}

// Stats returns a consistent snapshot of table statistics.
func (d *Data) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	st := Stats{
		Rows:    d.rows,
		Columns: make([]ColumnStats, len(d.cols)),
	}
	for i, c := range d.cols {
		cs := ColumnStats{
			Name:            c.def.Name,
			Type:            c.def.Type,
			DistinctStrings: c.DistinctStrings(),
		}
		if c.index != nil {
			cs.IndexedValues = c.index.DistinctValues()
			cs.IndexBytes = c.index.SizeInBytes()
		}
		st.Columns[i] = cs
	}
	return st
}
