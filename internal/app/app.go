package app

import (
	"io"
	"log/slog"

	"github.com/vk/chartbook/internal/render"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	renderer *render.HTML
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func NewApp(outW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   config,
		renderer: render.NewHTML(),
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
