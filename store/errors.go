package store

import (
	"errors"
	"fmt"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/value"
)

var (
	// ErrNoIndex is returned by equality lookups on columns without a usable
	// bitmap index. Callers fall back to a full scan.
	ErrNoIndex = errors.New("no index available")
)

// ErrTableExists indicates a create with an already taken table name.
type ErrTableExists struct {
	Table string
}

func (e *ErrTableExists) Error() string {
	return fmt.Sprintf("table %q already exists", e.Table)
}

// ErrUnknownTable indicates an operation on a missing table.
type ErrUnknownTable struct {
	Table string
}

func (e *ErrUnknownTable) Error() string {
	return fmt.Sprintf("unknown table %q", e.Table)
}

// ErrTypeMismatch indicates a value whose kind disagrees with the column's
// declared scalar type.
type ErrTypeMismatch struct {
	Column   string
	Expected schema.Type
	Actual   value.Kind
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("column %q: type mismatch: expected %s, got %s", e.Column, e.Expected, e.Actual)
}

// ErrNullNotAllowed indicates a null appended to a non-nullable column.
type ErrNullNotAllowed struct {
	Column string
}

func (e *ErrNullNotAllowed) Error() string {
	return fmt.Sprintf("column %q: null not allowed", e.Column)
}

// ErrOutOfRange indicates a row id at or beyond the current row count.
type ErrOutOfRange struct {
	Row  int
	Size int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("row %d out of range [0, %d)", e.Row, e.Size)
}

// ErrNullValue indicates a read of a slot whose null flag is set.
// Callers must check IsNull first when nulls are possible.
type ErrNullValue struct {
	Column string
	Row    int
}

func (e *ErrNullValue) Error() string {
	return fmt.Sprintf("column %q: row %d is null", e.Column, e.Row)
}

// ErrRowWidth indicates a row tuple whose length disagrees with the schema.
type ErrRowWidth struct {
	Expected int
	Actual   int
}

func (e *ErrRowWidth) Error() string {
	return fmt.Sprintf("row width mismatch: schema has %d columns, got %d values", e.Expected, e.Actual)
}
