// Package schema defines column definitions and immutable table schemas.
package schema

import (
	"fmt"

	"github.com/hupe1980/colgo/value"
)

// Type defines the declared scalar type of a column.
type Type uint8

const (
	// TypeInvalid represents an invalid type.
	TypeInvalid Type = iota
	// TypeInt32 is a 32-bit signed integer column.
	TypeInt32
	// TypeInt64 is a 64-bit signed integer column.
	TypeInt64
	// TypeFloat32 is a 32-bit float column.
	TypeFloat32
	// TypeFloat64 is a 64-bit float column.
	TypeFloat64
	// TypeBool is a boolean column.
	TypeBool
	// TypeString is a dictionary-encoded string column.
	TypeString
	// TypeDate is a date column, stored as milliseconds since the Unix epoch.
	TypeDate
	// TypeTimestamp is a timestamp column, stored as milliseconds since the Unix epoch.
	TypeTimestamp
)

// String returns the string representation of the Type.
func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "Int32"
	case TypeInt64:
		return "Int64"
	case TypeFloat32:
		return "Float32"
	case TypeFloat64:
		return "Float64"
	case TypeBool:
		return "Bool"
	case TypeString:
		return "String"
	case TypeDate:
		return "Date"
	case TypeTimestamp:
		return "Timestamp"
	default:
		return "Invalid"
	}
}

// Kind returns the value.Kind a non-null value of this type must carry.
func (t Type) Kind() value.Kind {
	switch t {
	case TypeInt32:
		return value.KindInt32
	case TypeInt64:
		return value.KindInt64
	case TypeFloat32:
		return value.KindFloat32
	case TypeFloat64:
		return value.KindFloat64
	case TypeBool:
		return value.KindBool
	case TypeString:
		return value.KindString
	case TypeDate:
		return value.KindDate
	case TypeTimestamp:
		return value.KindTimestamp
	default:
		return value.KindInvalid
	}
}

// Numeric reports whether the type accumulates arithmetically (SUM/AVG).
func (t Type) Numeric() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	default:
		return false
	}
}

// Ordered reports whether values of the type have a native ordering.
// Bool only supports equality.
func (t Type) Ordered() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeFloat32, TypeFloat64, TypeString, TypeDate, TypeTimestamp:
		return true
	default:
		return false
	}
}

// Column is the immutable descriptor of one table column.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
	Indexed  bool
}

// Schema is an ordered, immutable sequence of column definitions with a
// name-to-ordinal lookup. The ordinal order defines the row tuple layout
// everywhere: ingestion, storage and result columns.
type Schema struct {
	cols     []Column
	ordinals map[string]int
}

// New creates a Schema from the given column definitions.
// Column names must be non-empty and unique; types must be valid.
func New(cols []Column) (*Schema, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("schema: at least one column required")
	}

	s := &Schema{
		cols:     make([]Column, len(cols)),
		ordinals: make(map[string]int, len(cols)),
	}
	copy(s.cols, cols)

	for i, col := range s.cols {
		if col.Name == "" {
			return nil, fmt.Errorf("schema: column %d has an empty name", i)
		}
		if col.Type.Kind() == value.KindInvalid {
			return nil, fmt.Errorf("schema: column %q has an invalid type", col.Name)
		}
		if _, taken := s.ordinals[col.Name]; taken {
			return nil, &ErrDuplicateColumn{Column: col.Name}
		}
		s.ordinals[col.Name] = i
	}

	return s, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Column returns the column definition at ordinal i.
func (s *Schema) Column(i int) Column { return s.cols[i] }

// Columns returns a copy of the ordered column definitions.
func (s *Schema) Columns() []Column {
	cols := make([]Column, len(s.cols))
	copy(cols, s.cols)
	return cols
}

// Ordinal returns the ordinal of the named column.
func (s *Schema) Ordinal(name string) (int, bool) {
	i, ok := s.ordinals[name]
	return i, ok
}

// Lookup returns the column definition and ordinal for the named column,
// or ErrUnknownColumn if the schema has no such column.
func (s *Schema) Lookup(name string) (Column, int, error) {
	i, ok := s.ordinals[name]
	if !ok {
		return Column{}, 0, &ErrUnknownColumn{Column: name}
	}
	return s.cols[i], i, nil
}

// Names returns the column names in ordinal order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.cols))
	for i, col := range s.cols {
		names[i] = col.Name
	}
	return names
}
