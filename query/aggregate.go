package query

import (
	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/value"
)

// AggFunc identifies an aggregate function.
type AggFunc string

const (
	// AggCount counts rows; the target may be Wildcard or any column.
	AggCount AggFunc = "count"
	// AggSum sums non-null values of a numeric column.
	AggSum AggFunc = "sum"
	// AggAvg averages non-null values of a numeric column; the state is a
	// mergeable (sum, count) pair.
	AggAvg AggFunc = "avg"
	// AggMin takes the minimum non-null value of an ordered column.
	AggMin AggFunc = "min"
	// AggMax takes the maximum non-null value of an ordered column.
	AggMax AggFunc = "max"
)

// Aggregate is one aggregate definition: result alias, function and target
// column (Wildcard for COUNT).
type Aggregate struct {
	Alias  string
	Func   AggFunc
	Column string
}

// AvgState is the mergeable representation of a (partial) average: the sum
// and count components are summed independently before dividing, which lets
// a coordinating layer combine per-shard averages correctly. A plain scalar
// average cannot be merged that way.
type AvgState struct {
	Sum   float64 `json:"sum"`
	Count int64   `json:"count"`
}

// Merge combines two partial average states.
func (s AvgState) Merge(other AvgState) AvgState {
	return AvgState{Sum: s.Sum + other.Sum, Count: s.Count + other.Count}
}

// Average returns the combined average, or 0 for an empty state.
func (s AvgState) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Finalize returns the average as a result value: null for an empty state.
func (s AvgState) Finalize() value.Value {
	if s.Count == 0 {
		return value.Null()
	}
	return value.Float64(s.Sum / float64(s.Count))
}

// PartialAgg is the accumulated, mergeable state of one aggregate over one
// group. It is the unit a coordinating layer merges across shards before
// finalizing, and it doubles as the executor's in-memory accumulator.
//
// Integer columns accumulate in SumInt (exact), floats in SumFloat; AVG
// always maintains SumFloat alongside, so its state stays a (sum, count)
// pair regardless of the column's integer or float representation.
type PartialAgg struct {
	Func     AggFunc     `json:"fn"`
	Float    bool        `json:"float,omitempty"` // target column is float32/float64
	Rows     int64       `json:"rows"`
	NonNull  int64       `json:"nonNull"`
	SumInt   int64       `json:"sumInt,omitempty"`
	SumFloat float64     `json:"sumFloat,omitempty"`
	Min      value.Value `json:"min"`
	Max      value.Value `json:"max"`
}

func newPartialAgg(fn AggFunc, float bool) PartialAgg {
	return PartialAgg{
		Func:  fn,
		Float: float,
		Min:   value.Null(),
		Max:   value.Null(),
	}
}

// observe folds one row into the state. v is ignored for COUNT(*), where the
// caller passes a null value and isNull=true is impossible to distinguish;
// counting only needs Rows.
func (p *PartialAgg) observe(v value.Value, isNull bool) {
	p.Rows++
	if p.Func == AggCount || isNull {
		return
	}

	p.NonNull++

	switch p.Func {
	case AggSum, AggAvg:
		if p.Float {
			p.SumFloat += v.F64
		} else {
			p.SumInt += v.I64
			p.SumFloat += float64(v.I64)
		}
	case AggMin:
		if p.Min.IsNull() || value.Compare(v, p.Min) < 0 {
			p.Min = v
		}
	case AggMax:
		if p.Max.IsNull() || value.Compare(v, p.Max) > 0 {
			p.Max = v
		}
	}
}

// Merge combines another partial state for the same aggregate into p.
func (p *PartialAgg) Merge(other PartialAgg) {
	p.Rows += other.Rows
	p.NonNull += other.NonNull
	p.SumInt += other.SumInt
	p.SumFloat += other.SumFloat

	if p.Min.IsNull() || (!other.Min.IsNull() && value.Compare(other.Min, p.Min) < 0) {
		p.Min = other.Min
	}
	if p.Max.IsNull() || (!other.Max.IsNull() && value.Compare(other.Max, p.Max) > 0) {
		p.Max = other.Max
	}
}

// Avg returns the state's (sum, count) pair. Meaningful for AVG aggregates.
func (p *PartialAgg) Avg() AvgState {
	return AvgState{Sum: p.SumFloat, Count: p.NonNull}
}

// Finalize collapses the state into a result value.
//
// COUNT of an empty group is 0, never null. SUM, MIN and MAX over an empty
// group (or one with zero non-null values) are uniformly null. AVG is null
// in that case as well; coordinators that need the raw (0.0, 0) pair use
// Avg() before finalizing.
func (p *PartialAgg) Finalize() value.Value {
	switch p.Func {
	case AggCount:
		return value.Int64(p.Rows)
	case AggSum:
		if p.NonNull == 0 {
			return value.Null()
		}
		if p.Float {
			return value.Float64(p.SumFloat)
		}
		return value.Int64(p.SumInt)
	case AggAvg:
		return p.Avg().Finalize()
	case AggMin:
		return p.Min
	case AggMax:
		return p.Max
	default:
		return value.Null()
	}
}

// compiledAgg is an aggregate resolved against a schema.
type compiledAgg struct {
	agg Aggregate
	ord int // -1 for COUNT(*)
}

// compileAggregate validates the aggregate definition against the schema.
func compileAggregate(s *schema.Schema, agg Aggregate) (compiledAgg, error) {
	if agg.Func == AggCount {
		if agg.Column == "" || agg.Column == Wildcard {
			return compiledAgg{agg: agg, ord: -1}, nil
		}
		_, ord, err := s.Lookup(agg.Column)
		if err != nil {
			return compiledAgg{}, err
		}
		return compiledAgg{agg: agg, ord: ord}, nil
	}

	if agg.Column == "" || agg.Column == Wildcard {
		return compiledAgg{}, &ErrAggregateTargetRequired{Alias: agg.Alias}
	}

	def, ord, err := s.Lookup(agg.Column)
	if err != nil {
		return compiledAgg{}, err
	}

	switch agg.Func {
	case AggSum, AggAvg:
		if !def.Type.Numeric() {
			return compiledAgg{}, &ErrUnsupportedAggregate{Func: agg.Func, Type: def.Type}
		}
	case AggMin, AggMax:
		if !def.Type.Ordered() {
			return compiledAgg{}, &ErrUnsupportedAggregate{Func: agg.Func, Type: def.Type}
		}
	default:
		return compiledAgg{}, &ErrUnsupportedAggregate{Func: agg.Func, Type: def.Type}
	}

	return compiledAgg{agg: agg, ord: ord}, nil
}

// float reports whether the aggregate accumulates in floating point.
func (ca *compiledAgg) float(s *schema.Schema) bool {
	if ca.ord < 0 {
		return false
	}
	t := s.Column(ca.ord).Type
	return t == schema.TypeFloat32 || t == schema.TypeFloat64
}
