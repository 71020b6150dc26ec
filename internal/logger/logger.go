package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/junsantilla/cvalley/internal/config"
)

// New builds the process logger from the loaded configuration. log.format
// "json" or "console" picks the encoder; left empty, production gets JSON
// and development the human-readable one. Every entry carries the
// environment so logs from a dev and a prod builder are easy to tell apart.
func New(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zc zap.Config
	switch cfg.Log.Format {
	case "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		if cfg.App.Development() {
			zc = zap.NewDevelopmentConfig()
		} else {
			zc = zap.NewProductionConfig()
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	// strict mode already panics on programming errors; keep DPanic a log line
	zc.Development = false

	l, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("cvalley").With(zap.String("env", cfg.App.Environment))
}
