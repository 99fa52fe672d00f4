// Package ingest provides the bulk-loading helper sitting between an
// external ingestion pipeline and the storage core. Parsing and coercion
// from any file format happen upstream; the loader only takes rows already
// shaped as positional value tuples in schema order.
package ingest

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/hupe1980/colgo/store"
	"github.com/hupe1980/colgo/value"
)

// Options configure a Loader.
type Options struct {
	// BatchSize is the number of rows appended per write-lock acquisition.
	// Defaults to 1024.
	BatchSize int

	// RowsPerSecond throttles ingestion. 0 means unlimited.
	RowsPerSecond int

	// MaxConcurrentLoads bounds the number of Load calls running at once
	// across all tables. Defaults to 1.
	MaxConcurrentLoads int64

	// SkipIndexRebuild leaves bitmap indexes disabled after the load.
	// By default the loader disables per-row index maintenance for the
	// duration of the load and rebuilds the indexes once at the end.
	SkipIndexRebuild bool
}

// Loader performs batched, optionally rate-limited bulk loads.
//
// During a load, per-row bitmap index maintenance is switched off and the
// indexes are rebuilt once after the last batch, so ingestion does not pay
// the per-row maintenance cost. Each batch holds the table's write lock for
// its whole duration; readers of that table block meanwhile.
type Loader struct {
	registry *store.Registry
	opts     Options
	limiter  *rate.Limiter
	sem      *semaphore.Weighted
}

// NewLoader creates a loader over the given registry.
func NewLoader(registry *store.Registry, optFns ...func(*Options)) *Loader {
	opts := Options{
		BatchSize:          1024,
		MaxConcurrentLoads: 1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1024
	}
	if opts.MaxConcurrentLoads <= 0 {
		opts.MaxConcurrentLoads = 1
	}

	l := &Loader{
		registry: registry,
		opts:     opts,
		sem:      semaphore.NewWeighted(opts.MaxConcurrentLoads),
	}
	if opts.RowsPerSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(opts.RowsPerSecond), opts.RowsPerSecond)
	}
	return l
}

// Load appends rows to the named table in batches. It returns the number of
// rows appended; a failing row aborts the remainder of the load, and rows
// appended before the failure remain committed.
//
// The context bounds waiting on the rate limiter and the concurrency gate;
// the storage core itself has no cancellation points.
func (l *Loader) Load(ctx context.Context, table string, rows [][]value.Value) (int, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return 0, err
	}
	defer l.sem.Release(1)

	data, err := l.registry.Get(table)
	if err != nil {
		return 0, err
	}

	data.DisableIndexes()
	if !l.opts.SkipIndexRebuild {
		defer data.RebuildIndexes()
	}

	total := 0
	for lo := 0; lo < len(rows); lo += l.opts.BatchSize {
		hi := lo + l.opts.BatchSize
		if hi > len(rows) {
			hi = len(rows)
		}
		batch := rows[lo:hi]

		if l.limiter != nil {
			if err := l.waitRows(ctx, len(batch)); err != nil {
				return total, err
			}
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := data.AppendBatch(batch)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// waitRows reserves n rows from the limiter in chunks no larger than its
// burst. A single WaitN above the burst fails outright, so a batch larger
// than RowsPerSecond must be paid for across multiple waits.
func (l *Loader) waitRows(ctx context.Context, n int) error {
	burst := l.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := l.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
