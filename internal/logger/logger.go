// Package logger builds the process-wide slog logger on top of charmbracelet/log.
package logger

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/simonkvalheim/pix-ledger/internal/config"
)

// New returns a slog.Logger writing to w in the configured format.
// Unknown levels fall back to info, unknown formats to text.
func New(w io.Writer, cfg config.LogConfig) *slog.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch cfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})

	return slog.New(handler)
}

// Discard returns a logger that drops every record, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
