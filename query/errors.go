package query

import (
	"fmt"

	"github.com/hupe1980/colgo/schema"
)

// ErrUnsupportedOperator indicates a filter operator applied to a column
// whose scalar type does not support it (e.g. LIKE on a numeric column).
type ErrUnsupportedOperator struct {
	Operator Operator
	Type     schema.Type
}

func (e *ErrUnsupportedOperator) Error() string {
	return fmt.Sprintf("operator %q not supported for type %s", e.Operator, e.Type)
}

// ErrUnsupportedAggregate indicates an aggregate function applied to a column
// whose scalar type does not support it (e.g. SUM over a bool column).
type ErrUnsupportedAggregate struct {
	Func AggFunc
	Type schema.Type
}

func (e *ErrUnsupportedAggregate) Error() string {
	return fmt.Sprintf("aggregate %q not supported for type %s", e.Func, e.Type)
}

// ErrAggregateTargetRequired indicates a non-COUNT aggregate invoked with no
// resolvable target column.
type ErrAggregateTargetRequired struct {
	Alias string
}

func (e *ErrAggregateTargetRequired) Error() string {
	return fmt.Sprintf("aggregate %q requires a target column", e.Alias)
}

// ErrGroupBySelectMismatch indicates a selected column that is neither
// grouped by nor the alias of an aggregate.
type ErrGroupBySelectMismatch struct {
	Column string
}

func (e *ErrGroupBySelectMismatch) Error() string {
	return fmt.Sprintf("selected column %q is neither grouped by nor aggregated", e.Column)
}

// ErrDuplicateAlias indicates two aggregates declared under one alias.
type ErrDuplicateAlias struct {
	Alias string
}

func (e *ErrDuplicateAlias) Error() string {
	return fmt.Sprintf("duplicate aggregate alias %q", e.Alias)
}
