package colgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with colgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(table string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", table),
	}
}

// LogCreateTable logs a table creation.
func (l *Logger) LogCreateTable(ctx context.Context, table string, columns int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "create table failed",
			"table", table,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table created",
			"table", table,
			"columns", columns,
		)
	}
}

// LogDropTable logs a table drop.
func (l *Logger) LogDropTable(ctx context.Context, table string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "drop table failed",
			"table", table,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table dropped",
			"table", table,
		)
	}
}

// LogAppend logs a single-row append.
func (l *Logger) LogAppend(ctx context.Context, table string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "append failed",
			"table", table,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "append completed",
			"table", table,
		)
	}
}

// LogBatchAppend logs a batch append.
func (l *Logger) LogBatchAppend(ctx context.Context, table string, appended, total int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch append aborted",
			"table", table,
			"appended", appended,
			"total", total,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch append completed",
			"table", table,
			"rows", appended,
		)
	}
}

// LogQuery logs a query execution.
func (l *Logger) LogQuery(ctx context.Context, table string, resultRows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"table", table,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"table", table,
			"rows", resultRows,
		)
	}
}
