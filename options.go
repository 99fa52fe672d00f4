package colgo

import (
	"log/slog"

	"github.com/hupe1980/colgo/codec"
)

type options struct {
	metricsCollector      MetricsCollector
	logger                *Logger
	codec                 codec.Codec
	parallelScanThreshold int
}

// Option configures DB constructor behavior.
//
// Options primarily exist to avoid exploding the API surface with
// constructor variants.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &colgo.BasicMetricsCollector{}
//	db := colgo.New(colgo.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, Avg latency: %dns\n", stats.QueryCount, stats.QueryAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := colgo.NewJSONLogger(slog.LevelInfo)
//	db := colgo.New(colgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithCodec selects the wire codec used when packing partial results for
// shipment between nodes. Defaults to codec.Default. Pass nil to keep the
// default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithParallelScanThreshold enables chunked parallel full scans for tables
// with at least n rows when no bitmap index applies. Zero disables parallel
// scanning.
func WithParallelScanThreshold(n int) Option {
	return func(o *options) {
		o.parallelScanThreshold = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	// "Pass nil to disable" means the no-op implementations, never a nil
	// interface the facade would call through.
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	return o
}
