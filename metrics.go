package colgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    appendCounter  prometheus.Counter
//	    queryHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAppend(duration time.Duration, err error) {
//	    p.appendCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordAppend is called after each single-row append.
	// duration is the total time taken, err is nil if successful.
	RecordAppend(duration time.Duration, err error)

	// RecordBatchAppend is called after each batch append. count is the
	// number of rows attempted, appended the number committed, duration
	// the total time taken.
	RecordBatchAppend(count, appended int, duration time.Duration)

	// RecordQuery is called after each query execution. rows is the number
	// of result rows, err is nil if successful.
	RecordQuery(rows int, duration time.Duration, err error)

	// RecordCreateTable is called after each table creation.
	RecordCreateTable(duration time.Duration, err error)

	// RecordDropTable is called after each table drop.
	RecordDropTable(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchAppend(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordCreateTable(time.Duration, error)    {}
func (NoopMetricsCollector) RecordDropTable(time.Duration, error)      {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendErrors     atomic.Int64
	AppendTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchRows        atomic.Int64
	BatchAborted     atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
	CreateCount      atomic.Int64
	CreateErrors     atomic.Int64
	DropCount        atomic.Int64
	DropErrors       atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
	}
}

// RecordBatchAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchAppend(count, appended int, duration time.Duration) {
	b.BatchCount.Add(1)
	b.BatchRows.Add(int64(appended))
	if appended < count {
		b.BatchAborted.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(rows int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordCreateTable implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreateTable(duration time.Duration, err error) {
	b.CreateCount.Add(1)
	if err != nil {
		b.CreateErrors.Add(1)
	}
}

// RecordDropTable implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDropTable(duration time.Duration, err error) {
	b.DropCount.Add(1)
	if err != nil {
		b.DropErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:     b.AppendCount.Load(),
		AppendErrors:    b.AppendErrors.Load(),
		AppendAvgNanos:  b.getAvgAppendNanos(),
		BatchCount:      b.BatchCount.Load(),
		BatchRows:       b.BatchRows.Load(),
		BatchAborted:    b.BatchAborted.Load(),
		QueryCount:      b.QueryCount.Load(),
		QueryErrors:     b.QueryErrors.Load(),
		QueryAvgNanos:   b.getAvgQueryNanos(),
		CreateCount:     b.CreateCount.Load(),
		CreateErrors:    b.CreateErrors.Load(),
		DropCount:       b.DropCount.Load(),
		DropErrors:      b.DropErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAppendNanos() int64 {
	count := b.AppendCount.Load()
	if count == 0 {
		return 0
	}
	return b.AppendTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount    int64
	AppendErrors   int64
	AppendAvgNanos int64
	BatchCount     int64
	BatchRows      int64
	BatchAborted   int64
	QueryCount     int64
	QueryErrors    int64
	QueryAvgNanos  int64
	CreateCount    int64
	CreateErrors   int64
	DropCount      int64
	DropErrors     int64
}
