// Package logging builds the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tessro/turntable/internal/config"
)

// Options controls where log lines go.
type Options struct {
	// Console receives human-readable lines. Nil means os.Stderr; use
	// io.Discard when the terminal is owned by the TUI.
	Console io.Writer

	// Verbose logs at debug everywhere. Otherwise the console only shows
	// warnings and errors.
	Verbose bool
}

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a logger writing to the console and, when cfg.File is set, to a
// rotating JSON file. The returned closer releases the file.
func New(cfg config.LogConfig, opts Options) (zerolog.Logger, io.Closer) {
	level := ParseLevel(cfg.Level)
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	consoleLevel := level
	if !opts.Verbose && consoleLevel < zerolog.WarnLevel {
		consoleLevel = zerolog.WarnLevel
	}

	writers := []io.Writer{
		&zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}},
			Level:  consoleLevel,
		},
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.File), 0o755)
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: rotator},
			Level:  level,
		})
		closer = rotator
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
