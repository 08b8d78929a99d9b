// Package logger builds the zap logger shared by the server and workers.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for env "prod"/"production" and a
// human readable development logger otherwise. level overrides the default
// level when it parses ("debug", "info", "warn", "error").
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level != "" {
		if lvl, err := zapcore.ParseLevel(level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	return cfg.Build()
}

// Must is New that falls back to a no-op logger instead of failing, so a
// broken log configuration never keeps the service from starting.
func Must(env, level string) *zap.Logger {
	l, err := New(env, level)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
