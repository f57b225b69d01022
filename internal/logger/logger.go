package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a new structured logger writing to stdout.
// Unknown levels fall back to info.
func New(level string, json bool) (*zap.SugaredLogger, error) {
	return build(level, json, "stdout", os.Stdout)
}

// NewStderr creates a logger that keeps stdout free for command output
func NewStderr(level string, json bool) (*zap.SugaredLogger, error) {
	return build(level, json, "stderr", os.Stderr)
}

func build(level string, json bool, path string, sink *os.File) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	if json {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		cfg.OutputPaths = []string{path}
		l, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		return l.Sugar(), nil
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(sink),
		lvl,
	)

	return zap.New(core).Sugar(), nil
}

// NewNop returns a logger that discards everything
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
