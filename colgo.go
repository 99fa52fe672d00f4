package colgo

import (
	"context"
	"time"

	"github.com/hupe1980/colgo/codec"
	"github.com/hupe1980/colgo/ingest"
	"github.com/hupe1980/colgo/query"
	"github.com/hupe1980/colgo/schema"
	"github.com/hupe1980/colgo/store"
	"github.com/hupe1980/colgo/value"
)

// DB is the top-level handle: a process-scoped table registry plus a query
// executor over it. Construct one per process (or per logical store) and
// pass it by reference to every component that needs table access; there is
// no ambient global state.
//
// All methods are safe for concurrent use.
type DB struct {
	registry *store.Registry
	executor *query.Executor
	logger   *Logger
	metrics  MetricsCollector
	codec    codec.Codec
}

// New creates an empty DB.
func New(optFns ...Option) *DB {
	o := applyOptions(optFns)

	registry := store.NewRegistry()
	return &DB{
		registry: registry,
		executor: query.NewExecutor(registry, query.WithParallelScanThreshold(o.parallelScanThreshold)),
		logger:   o.logger,
		metrics:  o.metricsCollector,
		codec:    o.codec,
	}
}

// CreateTable creates an empty table with the given columns.
// It fails with store.ErrTableExists if the name is taken.
func (db *DB) CreateTable(name string, cols []schema.Column) error {
	start := time.Now()
	_, err := db.registry.Create(name, cols)
	db.metrics.RecordCreateTable(time.Since(start), err)
	db.logger.LogCreateTable(context.Background(), name, len(cols), err)
	return translateError(err)
}

// DropTable atomically removes the table's schema and data.
func (db *DB) DropTable(name string) error {
	start := time.Now()
	err := db.registry.Drop(name)
	db.metrics.RecordDropTable(time.Since(start), err)
	db.logger.LogDropTable(context.Background(), name, err)
	return translateError(err)
}

// TableExists reports whether the named table is registered.
func (db *DB) TableExists(name string) bool {
	return db.registry.Exists(name)
}

// Table returns the named table's schema.
func (db *DB) Table(name string) (*schema.Schema, error) {
	data, err := db.registry.Get(name)
	if err != nil {
		return nil, translateError(err)
	}
	return data.Schema(), nil
}

// TableData returns the named table's data for direct storage-level access.
func (db *DB) TableData(name string) (*store.Data, error) {
	data, err := db.registry.Get(name)
	if err != nil {
		return nil, translateError(err)
	}
	return data, nil
}

// Tables returns the registered table names in sorted order.
func (db *DB) Tables() []string {
	return db.registry.Names()
}

// Append appends one row given as a positional tuple in schema order.
// Values must already carry the column's declared scalar kind; parsing and
// coercion belong to the ingestion collaborator.
func (db *DB) Append(table string, row ...value.Value) error {
	start := time.Now()

	data, err := db.registry.Get(table)
	if err == nil {
		err = data.Append(row)
	}

	db.metrics.RecordAppend(time.Since(start), err)
	db.logger.LogAppend(context.Background(), table, err)
	return translateError(err)
}

// AppendBatch appends many rows under one write-lock hold and returns the
// number of rows appended. A failing row aborts the remainder of the batch;
// rows appended before the failure remain committed.
func (db *DB) AppendBatch(table string, rows [][]value.Value) (int, error) {
	start := time.Now()

	appended := 0
	data, err := db.registry.Get(table)
	if err == nil {
		appended, err = data.AppendBatch(rows)
	}

	db.metrics.RecordBatchAppend(len(rows), appended, time.Since(start))
	db.logger.LogBatchAppend(context.Background(), table, appended, len(rows), err)
	return appended, translateError(err)
}

// Query executes q and assembles a column-oriented result.
func (db *DB) Query(q *query.Query) (*query.Result, error) {
	start := time.Now()

	res, err := db.executor.Execute(q)
	rows := 0
	if res != nil {
		rows = res.Len()
	}

	db.metrics.RecordQuery(rows, time.Since(start), err)
	db.logger.LogQuery(context.Background(), q.Table, rows, err)
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

// QueryPartial executes q's filter and aggregation, returning mergeable
// per-group aggregate states for a coordinating layer.
func (db *DB) QueryPartial(q *query.Query) (*query.PartialResult, error) {
	partial, err := db.executor.ExecutePartial(q)
	if err != nil {
		return nil, translateError(err)
	}
	return partial, nil
}

// QueryPartialPacked executes q like QueryPartial and packs the partial
// result into a self-describing wire envelope using the DB's codec and the
// given compression. The envelope is what a shard ships to its coordinator.
func (db *DB) QueryPartialPacked(q *query.Query, comp codec.Compression) ([]byte, error) {
	partial, err := db.QueryPartial(q)
	if err != nil {
		return nil, err
	}
	return codec.Pack(db.codec, comp, partial)
}

// MergePartialEnvelopes decodes packed partial results, merges them and
// finalizes into an assembled result. Envelopes are self-describing, so the
// shards may have packed with different codecs or compressions.
func MergePartialEnvelopes(envelopes ...[]byte) (*query.Result, error) {
	var merged *query.PartialResult
	for _, env := range envelopes {
		partial := &query.PartialResult{}
		if err := codec.Unpack(env, partial); err != nil {
			return nil, err
		}
		if merged == nil {
			merged = partial
			continue
		}
		if err := merged.Merge(partial); err != nil {
			return nil, err
		}
	}
	if merged == nil {
		return &query.Result{}, nil
	}
	return merged.Finalize(), nil
}

// Loader creates a bulk loader over this DB's registry.
func (db *DB) Loader(optFns ...func(*ingest.Options)) *ingest.Loader {
	return ingest.NewLoader(db.registry, optFns...)
}
