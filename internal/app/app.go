package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type App struct {
	Config Config
	Log    *zap.Logger
	*Wire
}

func New(cfg Config, log *zap.Logger) (*App, error) {
	w, err := NewWire(cfg, log)
	if err != nil {
		return nil, err
	}
	return &App{Config: cfg, Log: log, Wire: w}, nil
}

// NewLogger returns a production JSON logger, at debug level when verbose.
func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.DisableStacktrace = true
	return config.Build()
}
