package schema

import "fmt"

// ErrUnknownColumn indicates a reference to a column absent from the schema.
type ErrUnknownColumn struct {
	Column string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("unknown column %q", e.Column)
}

// ErrDuplicateColumn indicates two columns sharing one name within a table.
type ErrDuplicateColumn struct {
	Column string
}

func (e *ErrDuplicateColumn) Error() string {
	return fmt.Sprintf("duplicate column %q", e.Column)
}
