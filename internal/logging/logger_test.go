package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}

	for in, exp := range tests {
		assert.Equal(t, exp, ParseLevel(in), in)
	}
}

func TestNewFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "warn",
		Output: &buf,
	})

	logger.Info().Msg("info message")
	logger.Warn().Msg("warn message")

	out := buf.String()
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestNewWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithComponent(Config{
		Level:  "debug",
		Output: &buf,
	}, "profiler")

	logger.Debug().Str("path", "a.csv").Msg("profiling")

	out := buf.String()
	assert.Contains(t, out, `"component":"profiler"`)
	assert.Contains(t, out, `"path":"a.csv"`)
}
