// Package store implements the columnar storage layer: typed per-column
// dense arrays with null tracking, string dictionary encoding, roaring-bitmap
// indexing, table data guarded by a reader-writer lock, and the process-scoped
// table registry.
package store

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/value"
)

const defaultCapacity = 16

// grow returns s with capacity for at least need additional elements.
// Capacity grows geometrically by roughly 1.5x and is never reduced.
func grow[T any](s []T, need int) []T {
	if cap(s)-len(s) >= need {
		return s
	}
	newCap := cap(s)
	if newCap < defaultCapacity {
		newCap = defaultCapacity
	}
	for newCap < len(s)+need {
		newCap += newCap / 2
	}
	out := make([]T, len(s), newCap)
	copy(out, s)
	return out
}

// Column holds one column's values across all rows of a table.
//
// Exactly one dense array is active, selected by the declared scalar type.
// String columns store dictionary codes, not characters. The store is
// append-only: appended data is never removed or overwritten.
//
// Column is not independently synchronized; the owning Data's lock guards
// all access, including bitmap index maintenance.
type Column struct {
	def  schema.Column
	size int

	i32s  []int32
	i64s  []int64 // Int64, Date and Timestamp (epoch millis)
	f32s  []float32
	f64s  []float64
	bools []bool
	codes []uint32 // String: dictionary codes

	nulls []bool // parallel null flags, nil unless nullable
	dict  *dictionary
	index *Index
}

// NewColumn creates an empty column store for the given definition.
func NewColumn(def schema.Column) *Column {
	c := &Column{def: def}
	if def.Type == schema.TypeString {
		c.dict = newDictionary()
	}
	if def.Indexed {
		c.index = NewIndex()
	}
	return c
}

// Def returns the column definition.
func (c *Column) Def() schema.Column { return c.def }

// Len returns the number of appended rows.
func (c *Column) Len() int { return c.size }

// Validate checks v against the column's declared type and nullability
// without mutating the store.
func (c *Column) Validate(v value.Value) error {
	if v.IsNull() {
		if !c.def.Nullable {
			return &ErrNullNotAllowed{Column: c.def.Name}
		}
		return nil
	}
	if v.Kind != c.def.Type.Kind() {
		return &ErrTypeMismatch{Column: c.def.Name, Expected: c.def.Type, Actual: v.Kind}
	}
	return nil
}

// Append type-checks v and extends the dense array, the null flags, the
// dictionary (strings) and, if indexed, the bitmap index. Amortized O(1).
func (c *Column) Append(v value.Value) error {
	if err := c.Validate(v); err != nil {
		return err
	}
	c.appendUnchecked(v)
	return nil
}

// appendUnchecked extends the store with a value already validated by
// Validate. Pre-validation keeps multi-column row appends from failing
// halfway and desyncing column sizes.
func (c *Column) appendUnchecked(v value.Value) {
	row := c.size

	if c.def.Nullable {
		c.nulls = grow(c.nulls, 1)
		c.nulls = append(c.nulls, v.IsNull())
	}

	switch c.def.Type {
	case schema.TypeInt32:
		c.i32s = grow(c.i32s, 1)
		c.i32s = append(c.i32s, int32(v.I64))
	case schema.TypeInt64, schema.TypeDate, schema.TypeTimestamp:
		c.i64s = grow(c.i64s, 1)
		c.i64s = append(c.i64s, v.I64)
	case schema.TypeFloat32:
		c.f32s = grow(c.f32s, 1)
		c.f32s = append(c.f32s, float32(v.F64))
	case schema.TypeFloat64:
		c.f64s = grow(c.f64s, 1)
		c.f64s = append(c.f64s, v.F64)
	case schema.TypeBool:
		c.bools = grow(c.bools, 1)
		c.bools = append(c.bools, v.B)
	case schema.TypeString:
		var code uint32
		if !v.IsNull() {
			code = c.dict.intern(v.S)
		}
		c.codes = grow(c.codes, 1)
		c.codes = append(c.codes, code)
	}

	if c.index != nil && !v.IsNull() {
		c.index.Add(v, uint32(row))
	}

	c.size++
}

// Get returns the typed value at row. It fails with ErrOutOfRange for row ids
// at or beyond the current size and with ErrNullValue for null slots.
func (c *Column) Get(row int) (value.Value, error) {
	if row < 0 || row >= c.size {
		return value.Value{}, &ErrOutOfRange{Row: row, Size: c.size}
	}
	if c.IsNull(row) {
		return value.Value{}, &ErrNullValue{Column: c.def.Name, Row: row}
	}
	return c.at(row), nil
}

// IsNull reports whether the slot at row holds a null. Always false for
// non-nullable columns and out-of-range rows.
func (c *Column) IsNull(row int) bool {
	if c.nulls == nil || row < 0 || row >= c.size {
		return false
	}
	return c.nulls[row]
}

// Value returns the value at row, with value.Null() for null slots.
// It fails only for out-of-range rows.
func (c *Column) Value(row int) (value.Value, error) {
	if row < 0 || row >= c.size {
		return value.Value{}, &ErrOutOfRange{Row: row, Size: c.size}
	}
	if c.IsNull(row) {
		return value.Null(), nil
	}
	return c.at(row), nil
}

// at reads the dense array at row. The caller guarantees row is in range and
// the slot is non-null.
func (c *Column) at(row int) value.Value {
	switch c.def.Type {
	case schema.TypeInt32:
		return value.Int32(c.i32s[row])
	case schema.TypeInt64:
		return value.Int64(c.i64s[row])
	case schema.TypeDate:
		return value.Date(c.i64s[row])
	case schema.TypeTimestamp:
		return value.Timestamp(c.i64s[row])
	case schema.TypeFloat32:
		return value.Float32(c.f32s[row])
	case schema.TypeFloat64:
		return value.Float64(c.f64s[row])
	case schema.TypeBool:
		return value.Bool(c.bools[row])
	case schema.TypeString:
		return value.String(c.dict.value(c.codes[row]))
	default:
		return value.Null()
	}
}

// FindEqual returns the set of row ids holding v, delegating to the bitmap
// index. It fails with ErrNoIndex when the column has no enabled index;
// callers fall back to a full scan.
func (c *Column) FindEqual(v value.Value) (*roaring.Bitmap, error) {
	if c.index == nil || c.index.Disabled() {
		return nil, ErrNoIndex
	}
	return c.index.Search(v), nil
}

// Index returns the column's bitmap index, or nil if the column is not indexed.
func (c *Column) Index() *Index { return c.index }

// DistinctStrings returns the dictionary size for string columns, 0 otherwise.
func (c *Column) DistinctStrings() int {
	if c.dict == nil {
		return 0
	}
	return c.dict.size()
}
