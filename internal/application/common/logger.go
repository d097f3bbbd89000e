package common

import "context"

// StepLogger receives structured progress messages from the runner and
// command handlers. Adapters decide where they go (stdout, metrics,
// the experiment log).
type StepLogger interface {
	Log(level, message string, metadata map[string]interface{})
}

// Context keys for passing the logger through context
type contextKey int

const (
	loggerKey contextKey = iota
)

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger StepLogger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext extracts the logger from context, or returns a
// no-op logger if not found
func LoggerFromContext(ctx context.Context) StepLogger {
	if logger, ok := ctx.Value(loggerKey).(StepLogger); ok {
		return logger
	}
	return &noOpLogger{}
}

// noOpLogger is the fallback when no logger is in context
type noOpLogger struct{}

func (l *noOpLogger) Log(level, message string, metadata map[string]interface{}) {}
