package query

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/store"
	"github.com/hupe1980/colgo/value"
)

// Executor evaluates queries against the table registry.
//
// Execution holds the table's shared lock for the whole
// filter → group → aggregate → sort → limit pipeline, so a query observes a
// single consistent snapshot of row count and column contents.
type Executor struct {
	registry          *store.Registry
	parallelThreshold int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithParallelScanThreshold enables a chunked parallel full scan for tables
// with at least n rows when no bitmap index applies. Zero disables it.
func WithParallelScanThreshold(n int) ExecutorOption {
	return func(e *Executor) {
		e.parallelThreshold = n
	}
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *store.Registry, optFns ...ExecutorOption) *Executor {
	e := &Executor{registry: registry}
	for _, fn := range optFns {
		if fn != nil {
			fn(e)
		}
	}
	return e
}

// Execute runs the query and assembles a column-oriented result.
//
// The limit is applied to the final assembled result, after grouping,
// aggregation and ordering.
func (e *Executor) Execute(q *Query) (*Result, error) {
	data, err := e.registry.Get(q.Table)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = data.Read(func(r store.Reader) error {
		p, err := compile(q, r.Schema())
		if err != nil {
			return err
		}

		ids := p.filter(r, e.parallelThreshold)

		if p.aggregating {
			res = p.assemble(p.aggregate(r, ids))
			p.sortResult(res)
		} else {
			p.sortIDs(r, ids)
			res = p.project(r, ids)
		}

		p.applyLimit(res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ExecutePartial runs the query's filter and aggregation but stops before
// finalization, returning mergeable per-group aggregate states for a
// coordinating layer. Sort and limit are left to finalization.
func (e *Executor) ExecutePartial(q *Query) (*PartialResult, error) {
	data, err := e.registry.Get(q.Table)
	if err != nil {
		return nil, err
	}

	var partial *PartialResult
	err = data.Read(func(r store.Reader) error {
		p, err := compile(q, r.Schema())
		if err != nil {
			return err
		}
		if !p.aggregating {
			return fmt.Errorf("partial execution requires grouping or aggregates")
		}

		ids := p.filter(r, e.parallelThreshold)

		aliases := make([]string, len(p.aggs))
		for i := range p.aggs {
			aliases[i] = p.aggs[i].agg.Alias
		}

		partial = &PartialResult{
			GroupColumns: append([]string(nil), q.GroupBy...),
			Aliases:      aliases,
			Groups:       p.aggregate(r, ids),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return partial, nil
}

// sortKey is one resolved sort key. idx is a result-column position for
// aggregating queries and a schema ordinal otherwise.
type sortKey struct {
	idx  int
	desc bool
}

// plan is a query resolved against one table schema, ready to run without
// further validation.
type plan struct {
	q           *Query
	s           *schema.Schema
	conds       []compiledCond
	groupOrds   []int
	aggs        []compiledAgg
	aggFloat    []bool
	aggregating bool
	resultCols  []string
	selectOrds  []int // projection ordinals, non-aggregating queries only
	sortKeys    []sortKey
}

func compile(q *Query, s *schema.Schema) (*plan, error) {
	p := &plan{q: q, s: s}

	for _, cond := range q.Conditions {
		cc, err := compileCondition(s, cond)
		if err != nil {
			return nil, err
		}
		p.conds = append(p.conds, cc)
	}

	for _, name := range q.GroupBy {
		_, ord, err := s.Lookup(name)
		if err != nil {
			return nil, err
		}
		p.groupOrds = append(p.groupOrds, ord)
	}

	seen := make(map[string]struct{}, len(q.Aggregates))
	for _, agg := range q.Aggregates {
		if _, dup := seen[agg.Alias]; dup {
			return nil, &ErrDuplicateAlias{Alias: agg.Alias}
		}
		seen[agg.Alias] = struct{}{}

		ca, err := compileAggregate(s, agg)
		if err != nil {
			return nil, err
		}
		p.aggs = append(p.aggs, ca)
		p.aggFloat = append(p.aggFloat, ca.float(s))
	}

	p.aggregating = len(q.GroupBy) > 0 || len(q.Aggregates) > 0

	if err := p.resolveColumns(); err != nil {
		return nil, err
	}

	// Aggregating queries sort the assembled result, so keys must name a
	// group-by column or an aggregate alias. Plain queries sort the filtered
	// row ids against the schema, so any table column works, projected or not.
	for _, key := range q.OrderBy {
		if p.aggregating {
			idx := -1
			for i, c := range p.resultCols {
				if c == key.Column {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, &schema.ErrUnknownColumn{Column: key.Column}
			}
			p.sortKeys = append(p.sortKeys, sortKey{idx: idx, desc: key.Desc})
			continue
		}

		_, ord, err := s.Lookup(key.Column)
		if err != nil {
			return nil, err
		}
		p.sortKeys = append(p.sortKeys, sortKey{idx: ord, desc: key.Desc})
	}

	return p, nil
}

func (p *plan) wildcard() bool {
	return len(p.q.Select) == 0 || (len(p.q.Select) == 1 && p.q.Select[0] == Wildcard)
}

// resolveColumns fixes the result column list. With grouping or aggregation
// the result is always group-by columns first, then every aggregate alias;
// a non-wildcard select must stay within that set. Without them, the
// selected columns are used as-is, with the wildcard expanding to schema
// order.
func (p *plan) resolveColumns() error {
	if p.aggregating {
		p.resultCols = make([]string, 0, len(p.q.GroupBy)+len(p.aggs))
		p.resultCols = append(p.resultCols, p.q.GroupBy...)
		for i := range p.aggs {
			p.resultCols = append(p.resultCols, p.aggs[i].agg.Alias)
		}

		if !p.wildcard() {
			allowed := make(map[string]struct{}, len(p.resultCols))
			for _, c := range p.resultCols {
				allowed[c] = struct{}{}
			}
			for _, name := range p.q.Select {
				if _, ok := allowed[name]; !ok {
					return &ErrGroupBySelectMismatch{Column: name}
				}
			}
		}
		return nil
	}

	var names []string
	if p.wildcard() {
		names = p.s.Names()
	} else {
		names = p.q.Select
	}

	p.resultCols = make([]string, 0, len(names))
	p.selectOrds = make([]int, 0, len(names))
	for _, name := range names {
		_, ord, err := p.s.Lookup(name)
		if err != nil {
			return err
		}
		p.resultCols = append(p.resultCols, name)
		p.selectOrds = append(p.selectOrds, ord)
	}
	return nil
}

// filter returns the matching row ids in ascending row order.
//
// Equality conditions on indexed columns are answered by AND-ing bitmap
// posting lists with an early exit on an empty intersection (those
// conditions need no re-evaluation). Remaining conditions are evaluated
// per row, either over the bitmap candidates or over a full scan.
func (p *plan) filter(r store.Reader, parallelThreshold int) []int {
	rows := r.NumRows()
	if rows == 0 {
		return nil
	}

	var candidates *roaring.Bitmap
	var remaining []*compiledCond

	for i := range p.conds {
		cc := &p.conds[i]
		if cc.cond.Operator == OpEqual && !cc.cond.Value.IsNull() {
			if bm, err := r.Column(cc.ord).FindEqual(cc.cond.Value); err == nil {
				if candidates == nil {
					candidates = bm
				} else {
					candidates.And(bm)
				}
				if candidates.IsEmpty() {
					return nil
				}
				continue
			}
		}
		remaining = append(remaining, cc)
	}

	if candidates != nil {
		ids := make([]int, 0, candidates.GetCardinality())
		it := candidates.Iterator()
		for it.HasNext() {
			row := int(it.Next())
			if p.evalRow(r, row, remaining) {
				ids = append(ids, row)
			}
		}
		return ids
	}

	if parallelThreshold > 0 && rows >= parallelThreshold {
		return p.parallelScan(r, rows, remaining)
	}

	ids := make([]int, 0, rows)
	for row := 0; row < rows; row++ {
		if p.evalRow(r, row, remaining) {
			ids = append(ids, row)
		}
	}
	return ids
}

// parallelScan splits the row range into chunks evaluated concurrently.
// Chunk results are concatenated in range order, preserving row-id order.
func (p *plan) parallelScan(r store.Reader, rows int, conds []*compiledCond) []int {
	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	chunk := (rows + workers - 1) / workers
	results := make([][]int, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunk
		hi := lo + chunk
		if hi > rows {
			hi = rows
		}
		g.Go(func() error {
			var ids []int
			for row := lo; row < hi; row++ {
				if p.evalRow(r, row, conds) {
					ids = append(ids, row)
				}
			}
			results[w] = ids
			return nil
		})
	}
	// Workers never fail; the group is used for joining only.
	_ = g.Wait()

	var ids []int
	for _, part := range results {
		ids = append(ids, part...)
	}
	return ids
}

func (p *plan) evalRow(r store.Reader, row int, conds []*compiledCond) bool {
	for _, cc := range conds {
		c := r.Column(cc.ord)
		isNull := c.IsNull(row)
		var v value.Value
		if !isNull {
			v, _ = c.Value(row)
		}
		if !cc.eval(v, isNull) {
			return false
		}
	}
	return true
}

// aggregate buckets the filtered row ids by group key and folds every row
// into the per-group aggregate states. With no group-by columns all rows
// form exactly one group, which exists even when no row passed the filter.
func (p *plan) aggregate(r store.Reader, ids []int) []PartialGroup {
	var groups []PartialGroup
	index := make(map[string]int)

	if len(p.groupOrds) == 0 {
		groups = append(groups, p.newGroup(nil))
		index[""] = 0
	}

	for _, row := range ids {
		var key []value.Value
		if len(p.groupOrds) > 0 {
			key = make([]value.Value, len(p.groupOrds))
			for i, ord := range p.groupOrds {
				key[i], _ = r.Column(ord).Value(row)
			}
		}

		ks := keyString(key)
		gi, ok := index[ks]
		if !ok {
			groups = append(groups, p.newGroup(key))
			gi = len(groups) - 1
			index[ks] = gi
		}

		g := &groups[gi]
		for ai := range p.aggs {
			ca := &p.aggs[ai]
			var v value.Value
			isNull := false
			if ca.ord >= 0 {
				c := r.Column(ca.ord)
				isNull = c.IsNull(row)
				if !isNull {
					v, _ = c.Value(row)
				}
			}
			g.Aggs[ai].observe(v, isNull)
		}
	}

	return groups
}

func (p *plan) newGroup(key []value.Value) PartialGroup {
	aggs := make([]PartialAgg, len(p.aggs))
	for i := range p.aggs {
		aggs[i] = newPartialAgg(p.aggs[i].agg.Func, p.aggFloat[i])
	}
	return PartialGroup{Key: key, Aggs: aggs}
}

func (p *plan) assemble(groups []PartialGroup) *Result {
	rows := make([][]value.Value, len(groups))
	for i, g := range groups {
		row := make([]value.Value, 0, len(p.resultCols))
		row = append(row, g.Key...)
		for ai := range g.Aggs {
			row = append(row, g.Aggs[ai].Finalize())
		}
		rows[i] = row
	}
	return &Result{
		Columns: append([]string(nil), p.resultCols...),
		Rows:    rows,
	}
}

func (p *plan) project(r store.Reader, ids []int) *Result {
	rows := make([][]value.Value, len(ids))
	for i, row := range ids {
		tuple := make([]value.Value, len(p.selectOrds))
		for j, ord := range p.selectOrds {
			tuple[j], _ = r.Column(ord).Value(row)
		}
		rows[i] = tuple
	}
	return &Result{
		Columns: append([]string(nil), p.resultCols...),
		Rows:    rows,
	}
}

// sortIDs orders the filtered row ids by the schema-resolved sort keys,
// before projection. Keys may name columns outside the selected set, so a
// top-N query can order by a column it does not return. The sort is stable
// and null compares as less than any non-null value; the direction flips the
// whole comparison, so nulls sort first ascending and last descending.
func (p *plan) sortIDs(r store.Reader, ids []int) {
	if len(p.sortKeys) == 0 {
		return
	}
	sort.SliceStable(ids, func(i, j int) bool {
		for _, key := range p.sortKeys {
			col := r.Column(key.idx)
			a, _ := col.Value(ids[i])
			b, _ := col.Value(ids[j])
			c := value.Compare(a, b)
			if key.desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// sortResult sorts assembled result rows by the resolved sort keys, with the
// same stability and null placement as sortIDs.
func (p *plan) sortResult(res *Result) {
	if len(p.sortKeys) == 0 {
		return
	}
	sort.SliceStable(res.Rows, func(i, j int) bool {
		a, b := res.Rows[i], res.Rows[j]
		for _, key := range p.sortKeys {
			c := value.Compare(a[key.idx], b[key.idx])
			if key.desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func (p *plan) applyLimit(res *Result) {
	if p.q.Limit > 0 && len(res.Rows) > p.q.Limit {
		res.Rows = res.Rows[:p.q.Limit]
	}
}
