package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production emits info-level records
// for ingestion; everything else runs debug with source locations so local
// payment and lifecycle traces are easy to follow.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg == nil || !cfg.IsProduction() {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
