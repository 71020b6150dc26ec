package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"github.com/junsantilla/cvalley/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{level: "debug", want: zapcore.DebugLevel},
		{level: "info", want: zapcore.InfoLevel},
		{level: "warn", want: zapcore.WarnLevel},
		{level: "WARN", want: zapcore.WarnLevel},
		{level: "error", want: zapcore.ErrorLevel},
		{level: "bogus", want: zapcore.InfoLevel},
		{level: "", want: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &config.Config{
				App: config.AppConfig{Environment: "production"},
				Log: config.LogConfig{Level: tt.level, Format: "json"},
			}
			l := New(cfg)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewFormatFollowsEnvironment(t *testing.T) {
	for _, env := range []string{"development", "production"} {
		t.Run(env, func(t *testing.T) {
			cfg := &config.Config{App: config.AppConfig{Environment: env}, Log: config.LogConfig{Level: "debug"}}
			l := New(cfg)
			assert.NotNil(t, l)
			assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
		})
	}
}
