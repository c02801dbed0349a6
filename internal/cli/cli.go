// Package cli holds the shared application scaffolding of the
// stackcollapse commands: logging setup and shutdown.
package cli

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel string
}

func (c *Config) fillDefault() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

type App struct {
	logger *zap.Logger
}

func New(config *Config) (*App, error) {
	config.fillDefault()

	level, err := zapcore.ParseLevel(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	logger, err := NewLogger(level)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{logger}, nil
}

func (a *App) Shutdown() {
	_ = a.logger.Sync()
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}
