// Package query defines the query model and the execution engine that
// evaluates it against the columnar storage layer: conjunctive filter
// conditions, grouping, merge-friendly aggregation, stable ordering and
// limiting, assembled into a column-oriented result.
package query

import (
	"github.com/hupe1980/colgo/value"
)

// Wildcard selects all columns in schema order.
const Wildcard = "*"

// OrderBy is one sort key: a result column and a direction.
type OrderBy struct {
	Column string
	Desc   bool
}

// Query is the immutable value object describing one query: table name,
// selected columns (empty means wildcard), implicitly AND-ed filter
// conditions, group-by columns, ordered aggregate definitions, sort keys and
// an optional row limit.
//
// Aggregates are an ordered list rather than a map so result column order is
// deterministic: group-by columns first, then every aggregate alias in
// declaration order.
type Query struct {
	Table      string
	Select     []string
	Conditions []Condition
	GroupBy    []string
	Aggregates []Aggregate
	OrderBy    []OrderBy
	Limit      int // 0 means no limit
}

// Builder assembles a Query step by step. Zero or more calls of each method
// may be chained; Build returns the finished immutable query.
type Builder struct {
	q Query
}

// New creates a query builder for the given table.
func New(table string) *Builder {
	return &Builder{q: Query{Table: table}}
}

// Select names the projected columns. Omitting it (or passing Wildcard)
// selects all columns in schema order.
func (b *Builder) Select(cols ...string) *Builder {
	b.q.Select = append(b.q.Select, cols...)
	return b
}

// Where adds a filter condition. All conditions must hold for a row to pass.
func (b *Builder) Where(col string, op Operator, v value.Value) *Builder {
	b.q.Conditions = append(b.q.Conditions, Condition{Column: col, Operator: op, Value: v})
	return b
}

// WhereNull adds an IS NULL condition on col.
func (b *Builder) WhereNull(col string) *Builder {
	return b.Where(col, OpIsNull, value.Null())
}

// WhereNotNull adds an IS NOT NULL condition on col.
func (b *Builder) WhereNotNull(col string) *Builder {
	return b.Where(col, OpIsNotNull, value.Null())
}

// GroupBy adds grouping columns, in the order given.
func (b *Builder) GroupBy(cols ...string) *Builder {
	b.q.GroupBy = append(b.q.GroupBy, cols...)
	return b
}

// Aggregate adds an aggregate definition under the given result alias.
// The target column may be Wildcard for COUNT.
func (b *Builder) Aggregate(alias string, fn AggFunc, col string) *Builder {
	b.q.Aggregates = append(b.q.Aggregates, Aggregate{Alias: alias, Func: fn, Column: col})
	return b
}

// Count adds a COUNT(*) aggregate under the given alias.
func (b *Builder) Count(alias string) *Builder {
	return b.Aggregate(alias, AggCount, Wildcard)
}

// OrderBy adds a sort key on a result column.
func (b *Builder) OrderBy(col string, desc bool) *Builder {
	b.q.OrderBy = append(b.q.OrderBy, OrderBy{Column: col, Desc: desc})
	return b
}

// Limit caps the number of result rows. Applied to the final assembled
// result, after grouping, aggregation and ordering.
func (b *Builder) Limit(n int) *Builder {
	b.q.Limit = n
	return b
}

// Build returns the assembled query.
func (b *Builder) Build() *Query {
	q := b.q
	return &q
}
