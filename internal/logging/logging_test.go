package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tessro/turntable/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestConsoleQuietUnlessVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(config.LogConfig{Level: "info"}, Options{Console: &buf})
	defer func() { _ = closer.Close() }()

	logger.Info().Msg("chatty")
	logger.Warn().Msg("careful")

	out := buf.String()
	if strings.Contains(out, "chatty") {
		t.Errorf("console shows info line without verbose: %q", out)
	}
	if !strings.Contains(out, "careful") {
		t.Errorf("console missing warning: %q", out)
	}
}

func TestVerboseShowsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := New(config.LogConfig{Level: "error"}, Options{Console: &buf, Verbose: true})
	defer func() { _ = closer.Close() }()

	logger.Debug().Msg("details")
	if !strings.Contains(buf.String(), "details") {
		t.Errorf("verbose console missing debug line: %q", buf.String())
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "turntable.log")
	var console bytes.Buffer
	logger, closer := New(config.LogConfig{Level: "info", File: path, MaxSizeMB: 1}, Options{Console: &console})

	logger.Info().Str("component", "test").Msg("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"message":"to file"`) || !strings.Contains(line, `"component":"test"`) {
		t.Errorf("file line = %q, want JSON with message and component", line)
	}
	if console.Len() != 0 {
		t.Errorf("info line reached quiet console: %q", console.String())
	}
}
