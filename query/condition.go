package query

import (
	"regexp"
	"strings"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/store"
	"github.com/hupe1980/colgo/value"
)

// Operator represents a comparison operator for filter conditions.
type Operator string

const (
	// OpEqual matches rows whose value equals the operand.
	OpEqual Operator = "eq"
	// OpNotEqual matches rows whose value differs from the operand.
	OpNotEqual Operator = "ne"
	// OpLessThan matches rows whose value orders before the operand.
	OpLessThan Operator = "lt"
	// OpLessEqual matches rows whose value orders before or equals the operand.
	OpLessEqual Operator = "lte"
	// OpGreaterThan matches rows whose value orders after the operand.
	OpGreaterThan Operator = "gt"
	// OpGreaterEqual matches rows whose value orders after or equals the operand.
	OpGreaterEqual Operator = "gte"
	// OpLike matches string rows against a pattern where % is any sequence
	// and _ is any single character. The whole value must match.
	OpLike Operator = "like"
	// OpIsNull matches rows whose slot is null.
	OpIsNull Operator = "isnull"
	// OpIsNotNull matches rows whose slot is not null.
	OpIsNotNull Operator = "notnull"
)

// Condition is a single filter condition on one column. Conditions within a
// query are implicitly AND-ed; there is no OR and no nesting.
type Condition struct {
	Column   string
	Operator Operator
	Value    value.Value
}

// compiledCond is a condition resolved against a schema and ready for
// per-row evaluation without further validation.
type compiledCond struct {
	cond Condition
	ord  int
	def  schema.Column
	like *regexp.Regexp
}

// compileCondition validates the operator against the column's declared type
// and the operand's kind, and precompiles LIKE patterns.
func compileCondition(s *schema.Schema, cond Condition) (compiledCond, error) {
	def, ord, err := s.Lookup(cond.Column)
	if err != nil {
		return compiledCond{}, err
	}

	cc := compiledCond{cond: cond, ord: ord, def: def}

	switch cond.Operator {
	case OpIsNull, OpIsNotNull:
		// Consults only the null flag; no operand, any type.
		return cc, nil

	case OpEqual, OpNotEqual:
		// Supported for every scalar type.

	case OpLessThan, OpLessEqual, OpGreaterThan, OpGreaterEqual:
		if !def.Type.Ordered() {
			return compiledCond{}, &ErrUnsupportedOperator{Operator: cond.Operator, Type: def.Type}
		}

	case OpLike:
		if def.Type != schema.TypeString {
			return compiledCond{}, &ErrUnsupportedOperator{Operator: cond.Operator, Type: def.Type}
		}

	default:
		return compiledCond{}, &ErrUnsupportedOperator{Operator: cond.Operator, Type: def.Type}
	}

	// A null operand never matches a value comparison; skip the kind check so
	// the condition compiles and evaluates to false.
	if !cond.Value.IsNull() && cond.Value.Kind != def.Type.Kind() {
		return compiledCond{}, &store.ErrTypeMismatch{
			Column:   cond.Column,
			Expected: def.Type,
			Actual:   cond.Value.Kind,
		}
	}

	if cond.Operator == OpLike {
		re, err := compileLike(cond.Value.S)
		if err != nil {
			return compiledCond{}, err
		}
		cc.like = re
	}

	return cc, nil
}

// eval evaluates the condition against one row slot. For any operator other
// than the null checks, a null slot or null operand evaluates to false:
// null never satisfies a value comparison.
func (cc *compiledCond) eval(v value.Value, isNull bool) bool {
	switch cc.cond.Operator {
	case OpIsNull:
		return isNull
	case OpIsNotNull:
		return !isNull
	}

	if isNull || cc.cond.Value.IsNull() {
		return false
	}

	switch cc.cond.Operator {
	case OpEqual:
		return value.Equal(v, cc.cond.Value)
	case OpNotEqual:
		return !value.Equal(v, cc.cond.Value)
	case OpLessThan:
		less, _ := value.Less(v, cc.cond.Value)
		return less
	case OpLessEqual:
		less, _ := value.Less(v, cc.cond.Value)
		return less || value.Equal(v, cc.cond.Value)
	case OpGreaterThan:
		gr, _ := value.Less(cc.cond.Value, v)
		return gr
	case OpGreaterEqual:
		gr, _ := value.Less(cc.cond.Value, v)
		return gr || value.Equal(v, cc.cond.Value)
	case OpLike:
		return cc.like.MatchString(v.S)
	default:
		return false
	}
}

// compileLike translates a LIKE pattern into an anchored regexp: % becomes
// "any sequence", _ becomes "any single character", and every other
// character is escaped, so pattern metacharacters like "." match literally.
func compileLike(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("(?s)^")

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			sb.WriteString(regexp.QuoteMeta(lit.String()))
			lit.Reset()
		}
	}

	for _, r := range pattern {
		switch r {
		case '%':
			flush()
			sb.WriteString(".*")
		case '_':
			flush()
			sb.WriteString(".")
		default:
			lit.WriteRune(r)
		}
	}
	flush()
	sb.WriteString("$")

	return regexp.Compile(sb.String())
}
