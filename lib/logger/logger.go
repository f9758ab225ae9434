package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger, set by New
var Log = zap.NewNop()

// New builds the production zap logger at the given level and installs it
// as the process logger
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	Log = l
	zap.ReplaceGlobals(l)
	return l, nil
}

// WithOperator tags the logger with the operator id
func WithOperator(log *zap.Logger, operatorID string) *zap.Logger {
	if operatorID == "" {
		return log
	}
	return log.With(zap.String("operator_id", operatorID))
}
