// Package observability constructs the shared structured logger.
package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a structured zap.Logger. Development mode uses a
// human-readable console encoder; production emits JSON.
func NewLogger(production bool) (*zap.Logger, error) {
	if production {
		cfg := zap.Config{
			Level:    zap.NewAtomicLevelAt(zapcore.InfoLevel),
			Encoding: "json",
			EncoderConfig: zapcore.EncoderConfig{
				MessageKey: "message",
				LevelKey:   "level",
				TimeKey:    "ts",
				EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
					enc.AppendString(l.String())
				},
				EncodeTime: zapcore.ISO8601TimeEncoder,
			},
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		}
		return cfg.Build()
	}
	return zap.NewDevelopment()
}
