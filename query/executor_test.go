package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/store"
	"github.com/hupe1980/colgo/value"
)

var salesCols = []schema.Column{
	{Name: "id", Type: schema.TypeInt64},
	{Name: "region", Type: schema.TypeString, Indexed: true},
	{Name: "product", Type: schema.TypeString},
	{Name: "qty", Type: schema.TypeInt64, Nullable: true},
	{Name: "price", Type: schema.TypeFloat64, Nullable: true},
}

func newSalesRegistry(t *testing.T) *store.Registry {
	t.Helper()

	r := store.NewRegistry()
	data, err := r.Create("sales", salesCols)
	require.NoError(t, err)

	rows := [][]value.Value{
		{value.Int64(1), value.String("us"), value.String("widget"), value.Int64(10), value.Float64(2.5)},
		{value.Int64(2), value.String("eu"), value.String("widget"), value.Int64(5), value.Float64(3.0)},
		{value.Int64(3), value.String("us"), value.String("gadget"), value.Int64(7), value.Null()},
		{value.Int64(4), value.String("eu"), value.String("gadget"), value.Null(), value.Float64(4.0)},
		{value.Int64(5), value.String("us"), value.String("widget"), value.Int64(3), value.Float64(2.0)},
	}
	n, err := data.AppendBatch(rows)
	require.NoError(t, err)
	require.Equal(t, len(rows), n)

	return r
}

func mustGet(t *testing.T, res *Result, row int, col string) value.Value {
	t.Helper()
	v, ok := res.Get(row, col)
	require.True(t, ok, "column %q row %d", col, row)
	return v
}

func TestExecute_FullScan(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "region", "product", "qty", "price"}, res.Columns)
	assert.Equal(t, 5, res.Len())
	assert.True(t, value.Equal(value.Int64(1), mustGet(t, res, 0, "id")))
	assert.True(t, mustGet(t, res, 2, "price").IsNull())
}

func TestExecute_Projection(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").Select("product", "id").Build())
	require.NoError(t, err)

	// Selected order wins over schema order.
	assert.Equal(t, []string{"product", "id"}, res.Columns)
	assert.True(t, value.Equal(value.String("widget"), res.Rows[0][0]))
	assert.True(t, value.Equal(value.Int64(1), res.Rows[0][1]))
}

func TestExecute_Filter_IndexedEquality(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Where("region", OpEqual, value.String("us")).
		Select("id").
		Build())
	require.NoError(t, err)

	require.Equal(t, 3, res.Len())
	assert.True(t, value.Equal(value.Int64(1), res.Rows[0][0]))
	assert.True(t, value.Equal(value.Int64(3), res.Rows[1][0]))
	assert.True(t, value.Equal(value.Int64(5), res.Rows[2][0]))
}

func TestExecute_Filter_Conjunction(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// Indexed equality narrows candidates, the range condition prunes them.
	res, err := e.Execute(New("sales").
		Where("region", OpEqual, value.String("us")).
		Where("qty", OpGreaterThan, value.Int64(5)).
		Select("id").
		Build())
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.True(t, value.Equal(value.Int64(1), res.Rows[0][0]))
	assert.True(t, value.Equal(value.Int64(3), res.Rows[1][0]))
}

func TestExecute_Filter_NullChecks(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").WhereNull("qty").Select("id").Build())
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())
	assert.True(t, value.Equal(value.Int64(4), res.Rows[0][0]))

	res, err = e.Execute(New("sales").WhereNotNull("price").Select("id").Build())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Len())
}

func TestExecute_Filter_NullSlotsNeverMatchComparisons(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// Row 4 has a null qty; neither side of a partition on qty may claim it.
	lt, err := e.Execute(New("sales").Where("qty", OpLessThan, value.Int64(6)).Build())
	require.NoError(t, err)
	gte, err := e.Execute(New("sales").Where("qty", OpGreaterEqual, value.Int64(6)).Build())
	require.NoError(t, err)

	assert.Equal(t, 4, lt.Len()+gte.Len())
}

func TestExecute_Filter_Like(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Where("product", OpLike, value.String("ga%")).
		Select("id").
		Build())
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.True(t, value.Equal(value.Int64(3), res.Rows[0][0]))
	assert.True(t, value.Equal(value.Int64(4), res.Rows[1][0]))
}

func TestExecute_Filter_EmptyIntersectionShortCircuits(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Where("region", OpEqual, value.String("apac")).
		Build())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestExecute_ParallelScan(t *testing.T) {
	// Threshold 1 forces the parallel path even on a small table.
	e := NewExecutor(newSalesRegistry(t), WithParallelScanThreshold(1))

	res, err := e.Execute(New("sales").
		Where("qty", OpGreaterThan, value.Int64(4)).
		Select("id").
		Build())
	require.NoError(t, err)

	// Row-id order is preserved across chunks.
	require.Equal(t, 3, res.Len())
	assert.True(t, value.Equal(value.Int64(1), res.Rows[0][0]))
	assert.True(t, value.Equal(value.Int64(2), res.Rows[1][0]))
	assert.True(t, value.Equal(value.Int64(3), res.Rows[2][0]))
}

func TestExecute_GroupAggregate(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		GroupBy("region").
		Count("n").
		Aggregate("total_qty", AggSum, "qty").
		Aggregate("avg_price", AggAvg, "price").
		OrderBy("region", false).
		Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "n", "total_qty", "avg_price"}, res.Columns)
	require.Equal(t, 2, res.Len())

	// eu: rows 2 and 4; qty 5 + null; price 3.0, 4.0.
	assert.True(t, value.Equal(value.String("eu"), mustGet(t, res, 0, "region")))
	assert.True(t, value.Equal(value.Int64(2), mustGet(t, res, 0, "n")))
	assert.True(t, value.Equal(value.Int64(5), mustGet(t, res, 0, "total_qty")))
	assert.True(t, value.Equal(value.Float64(3.5), mustGet(t, res, 0, "avg_price")))

	// us: rows 1, 3, 5; qty 10+7+3; price 2.5, null, 2.0.
	assert.True(t, value.Equal(value.String("us"), mustGet(t, res, 1, "region")))
	assert.True(t, value.Equal(value.Int64(3), mustGet(t, res, 1, "n")))
	assert.True(t, value.Equal(value.Int64(20), mustGet(t, res, 1, "total_qty")))
	assert.True(t, value.Equal(value.Float64(2.25), mustGet(t, res, 1, "avg_price")))
}

func TestExecute_GroupByMultipleColumns(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		GroupBy("region", "product").
		Count("n").
		Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "product", "n"}, res.Columns)
	assert.Equal(t, 4, res.Len())
}

func TestExecute_AggregateWithoutGroupBy(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Count("n").
		Aggregate("min_qty", AggMin, "qty").
		Aggregate("max_qty", AggMax, "qty").
		Build())
	require.NoError(t, err)

	require.Equal(t, 1, res.Len())
	assert.True(t, value.Equal(value.Int64(5), mustGet(t, res, 0, "n")))
	assert.True(t, value.Equal(value.Int64(3), mustGet(t, res, 0, "min_qty")))
	assert.True(t, value.Equal(value.Int64(10), mustGet(t, res, 0, "max_qty")))
}

func TestExecute_Aggregate_NoMatchingRows(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// Without group-by the single group always exists: COUNT is 0, the
	// value aggregates are null.
	res, err := e.Execute(New("sales").
		Where("id", OpGreaterThan, value.Int64(100)).
		Count("n").
		Aggregate("total", AggSum, "qty").
		Aggregate("lo", AggMin, "qty").
		Build())
	require.NoError(t, err)

	require.Equal(t, 1, res.Len())
	assert.True(t, value.Equal(value.Int64(0), mustGet(t, res, 0, "n")))
	assert.True(t, mustGet(t, res, 0, "total").IsNull())
	assert.True(t, mustGet(t, res, 0, "lo").IsNull())
}

func TestExecute_GroupBy_NoMatchingRows(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// With group-by, no rows means no groups.
	res, err := e.Execute(New("sales").
		Where("id", OpGreaterThan, value.Int64(100)).
		GroupBy("region").
		Count("n").
		Build())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestExecute_GroupBy_NullIsItsOwnGroup(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		GroupBy("qty").
		Count("n").
		Build())
	require.NoError(t, err)

	// qty values: 10, 5, 7, null, 3.
	assert.Equal(t, 5, res.Len())
}

func TestExecute_OrderBy(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Select("id", "qty").
		OrderBy("qty", false).
		Build())
	require.NoError(t, err)

	// Ascending: null first, then 3, 5, 7, 10.
	require.Equal(t, 5, res.Len())
	assert.True(t, mustGet(t, res, 0, "qty").IsNull())
	assert.True(t, value.Equal(value.Int64(3), mustGet(t, res, 1, "qty")))
	assert.True(t, value.Equal(value.Int64(10), mustGet(t, res, 4, "qty")))
}

func TestExecute_OrderByDesc_NullsLast(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Select("id", "qty").
		OrderBy("qty", true).
		Build())
	require.NoError(t, err)

	require.Equal(t, 5, res.Len())
	assert.True(t, value.Equal(value.Int64(10), mustGet(t, res, 0, "qty")))
	assert.True(t, mustGet(t, res, 4, "qty").IsNull())
}

func TestExecute_OrderBy_MultiKeyStable(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		Select("product", "region", "id").
		OrderBy("product", false).
		OrderBy("region", true).
		Build())
	require.NoError(t, err)

	require.Equal(t, 5, res.Len())
	// gadget/us, gadget/eu, widget/us, widget/us, widget/eu.
	assert.True(t, value.Equal(value.Int64(3), mustGet(t, res, 0, "id")))
	assert.True(t, value.Equal(value.Int64(4), mustGet(t, res, 1, "id")))
	// Equal keys keep input order (1 before 5).
	assert.True(t, value.Equal(value.Int64(1), mustGet(t, res, 2, "id")))
	assert.True(t, value.Equal(value.Int64(5), mustGet(t, res, 3, "id")))
	assert.True(t, value.Equal(value.Int64(2), mustGet(t, res, 4, "id")))
}

func TestExecute_OrderByUnselectedColumn(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// Top-N by a column the result does not include: order and limit still
	// apply to the hidden key.
	res, err := e.Execute(New("sales").
		Select("id").
		OrderBy("qty", true).
		Limit(2).
		Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, res.Columns)
	require.Equal(t, 2, res.Len())
	assert.True(t, value.Equal(value.Int64(1), res.Rows[0][0]))
	assert.True(t, value.Equal(value.Int64(3), res.Rows[1][0]))
}

func TestExecute_OrderByAggregateAlias(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").
		GroupBy("region").
		Aggregate("total_qty", AggSum, "qty").
		OrderBy("total_qty", true).
		Build())
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.True(t, value.Equal(value.String("us"), mustGet(t, res, 0, "region")))
	assert.True(t, value.Equal(value.String("eu"), mustGet(t, res, 1, "region")))
}

func TestExecute_Limit(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// Limit caps the final result after ordering: top 2 by qty.
	res, err := e.Execute(New("sales").
		Select("id", "qty").
		OrderBy("qty", true).
		Limit(2).
		Build())
	require.NoError(t, err)

	require.Equal(t, 2, res.Len())
	assert.True(t, value.Equal(value.Int64(10), mustGet(t, res, 0, "qty")))
	assert.True(t, value.Equal(value.Int64(7), mustGet(t, res, 1, "qty")))
}

func TestExecute_Limit_AfterAggregation(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// The limit applies to groups, not to scanned rows: the us totals still
	// cover all three us rows.
	res, err := e.Execute(New("sales").
		GroupBy("region").
		Aggregate("total_qty", AggSum, "qty").
		OrderBy("total_qty", true).
		Limit(1).
		Build())
	require.NoError(t, err)

	require.Equal(t, 1, res.Len())
	assert.True(t, value.Equal(value.String("us"), mustGet(t, res, 0, "region")))
	assert.True(t, value.Equal(value.Int64(20), mustGet(t, res, 0, "total_qty")))
}

func TestExecute_Limit_LargerThanResult(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	res, err := e.Execute(New("sales").Limit(100).Build())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Len())
}

func TestExecute_SelectSubsetOfGroupColumns(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	// Selecting within the group/alias set is allowed; the result shape is
	// still group columns then aliases.
	res, err := e.Execute(New("sales").
		Select("region", "n").
		GroupBy("region").
		Count("n").
		Build())
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "n"}, res.Columns)
}

func TestExecute_Errors(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	tests := []struct {
		name string
		q    *Query
		as   func(error) bool
	}{
		{
			"UnknownTable",
			New("missing").Build(),
			func(err error) bool {
				var target *store.ErrUnknownTable
				return assert.ErrorAs(t, err, &target)
			},
		},
		{
			"UnknownSelectColumn",
			New("sales").Select("nope").Build(),
			func(err error) bool {
				var target *schema.ErrUnknownColumn
				return assert.ErrorAs(t, err, &target)
			},
		},
		{
			"UnknownGroupColumn",
			New("sales").GroupBy("nope").Count("n").Build(),
			func(err error) bool {
				var target *schema.ErrUnknownColumn
				return assert.ErrorAs(t, err, &target)
			},
		},
		{
			"UnknownOrderColumn",
			New("sales").OrderBy("nope", false).Build(),
			func(err error) bool {
				var target *schema.ErrUnknownColumn
				return assert.ErrorAs(t, err, &target)
			},
		},
		{
			"SelectOutsideGroupSet",
			New("sales").Select("id").GroupBy("region").Count("n").Build(),
			func(err error) bool {
				var target *ErrGroupBySelectMismatch
				return assert.ErrorAs(t, err, &target)
			},
		},
		{
			"DuplicateAlias",
			New("sales").Count("n").Aggregate("n", AggSum, "qty").Build(),
			func(err error) bool {
				var target *ErrDuplicateAlias
				return assert.ErrorAs(t, err, &target)
			},
		},
		{
			"OrderByDataColumnUnderAggregation",
			New("sales").GroupBy("region").Count("n").OrderBy("id", false).Build(),
			func(err error) bool {
				var target *schema.ErrUnknownColumn
				return assert.ErrorAs(t, err, &target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(tt.q)
			require.Error(t, err)
			tt.as(err)
		})
	}
}

func TestExecutePartial(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	partial, err := e.ExecutePartial(New("sales").
		GroupBy("region").
		Count("n").
		Aggregate("avg_price", AggAvg, "price").
		Build())
	require.NoError(t, err)

	assert.Equal(t, []string{"region"}, partial.GroupColumns)
	assert.Equal(t, []string{"n", "avg_price"}, partial.Aliases)
	assert.Len(t, partial.Groups, 2)

	res := partial.Finalize()
	assert.Equal(t, []string{"region", "n", "avg_price"}, res.Columns)
	assert.Equal(t, 2, res.Len())
}

func TestExecutePartial_RequiresAggregation(t *testing.T) {
	e := NewExecutor(newSalesRegistry(t))

	_, err := e.ExecutePartial(New("sales").Build())
	assert.Error(t, err)
}

func TestExecutePartial_MergeAcrossShards(t *testing.T) {
	// Two shards of the same logical table, merged by a coordinator.
	shard1 := store.NewRegistry()
	d1, err := shard1.Create("sales", salesCols)
	require.NoError(t, err)
	_, err = d1.AppendBatch([][]value.Value{
		{value.Int64(1), value.String("us"), value.String("widget"), value.Int64(4), value.Float64(6.0)},
		{value.Int64(2), value.String("eu"), value.String("widget"), value.Int64(2), value.Float64(4.0)},
	})
	require.NoError(t, err)

	shard2 := store.NewRegistry()
	d2, err := shard2.Create("sales", salesCols)
	require.NoError(t, err)
	_, err = d2.AppendBatch([][]value.Value{
		{value.Int64(3), value.String("us"), value.String("gadget"), value.Int64(6), value.Float64(3.0)},
	})
	require.NoError(t, err)

	q := New("sales").
		GroupBy("region").
		Count("n").
		Aggregate("total_qty", AggSum, "qty").
		Aggregate("avg_price", AggAvg, "price").
		Build()

	p1, err := NewExecutor(shard1).ExecutePartial(q)
	require.NoError(t, err)
	p2, err := NewExecutor(shard2).ExecutePartial(q)
	require.NoError(t, err)

	require.NoError(t, p1.Merge(p2))
	res := p1.Finalize()

	require.Equal(t, 2, res.Len())

	usRow := -1
	for i := 0; i < res.Len(); i++ {
		if value.Equal(value.String("us"), mustGet(t, res, i, "region")) {
			usRow = i
		}
	}
	require.GreaterOrEqual(t, usRow, 0)

	assert.True(t, value.Equal(value.Int64(2), mustGet(t, res, usRow, "n")))
	assert.True(t, value.Equal(value.Int64(10), mustGet(t, res, usRow, "total_qty")))
	// Merged average weighs rows, not shards: (6.0 + 3.0) / 2.
	assert.True(t, value.Equal(value.Float64(4.5), mustGet(t, res, usRow, "avg_price")))
}
