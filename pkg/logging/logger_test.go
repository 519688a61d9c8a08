package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{"", LevelInfo},
		{"garbage", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestSimpleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSimpleLoggerWithOutput("test", LevelWarn, false, &buf)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestSimpleLogger_KeyValueFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSimpleLoggerWithOutput("session", LevelDebug, false, &buf)

	logger.Info("Session stored", "mode", "bearer", "expires", 123)

	line := buf.String()
	assert.Contains(t, line, "[session]")
	assert.Contains(t, line, "INFO")
	assert.Contains(t, line, "mode=bearer")
	assert.Contains(t, line, "expires=123")
}

func TestSimpleLogger_WithModule(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSimpleLoggerWithOutput("main", LevelDebug, false, &buf)

	child := logger.WithModule("bridge")
	child.Info("started")

	assert.True(t, strings.Contains(buf.String(), "[bridge]"))
}
