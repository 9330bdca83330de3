package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pr-reviewer/internal/config"
)

// NewLogger creates a new zap logger
func NewLogger(service string, cfg config.LoggerConfig) (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}

	encoding := cfg.Encoding
	if encoding != "console" {
		encoding = "json"
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapLevel),
		Development:       cfg.Development,
		Encoding:          encoding,
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !cfg.Development,
	}

	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]any{
		"service": service,
	}

	return zapCfg.Build()
}
