package logging

import (
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // default
		{"", slog.LevelInfo},        // default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLogger_Info(t *testing.T) {
	stateDir := t.TempDir()
	logger := New(stateDir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Info("tasks", "created task #1")

	content, err := os.ReadFile(domain.LogPath(stateDir))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] \[tasks\] created task #1\n$`), string(content))
}

func TestLogger_LevelFiltering(t *testing.T) {
	stateDir := t.TempDir()
	logger := New(stateDir, slog.LevelWarn)
	defer func() { _ = logger.Close() }()

	logger.Debug("realtime", "debug message")
	logger.Info("auth", "info message")
	logger.Warn("upload", "warn message")
	logger.Error("tasks", "error message")

	content, err := os.ReadFile(domain.LogPath(stateDir))
	require.NoError(t, err)
	s := string(content)
	assert.NotContains(t, s, "debug message")
	assert.NotContains(t, s, "info message")
	assert.Contains(t, s, "[WARN] [upload] warn message")
	assert.Contains(t, s, "[ERROR] [tasks] error message")
}

func TestLogger_Disabled(t *testing.T) {
	logger := New("", slog.LevelDebug)

	logger.Error("tasks", "dropped")
	n, err := logger.Write([]byte("raw"))

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, logger.Close())
}

func TestLogger_Slog(t *testing.T) {
	stateDir := t.TempDir()
	logger := New(stateDir, slog.LevelInfo)
	defer func() { _ = logger.Close() }()

	logger.Slog().Info("realtime connected", "table", "tasks")
	logger.Slog().Debug("filtered")

	content, err := os.ReadFile(domain.LogPath(stateDir))
	require.NoError(t, err)
	assert.Contains(t, string(content), `msg="realtime connected" table=tasks`)
	assert.NotContains(t, string(content), "filtered")
}

func TestLogger_ReopenAfterClose(t *testing.T) {
	stateDir := t.TempDir()
	logger := New(stateDir, slog.LevelInfo)

	logger.Info("auth", "first")
	require.NoError(t, logger.Close())
	logger.Info("auth", "second")
	require.NoError(t, logger.Close())

	content, err := os.ReadFile(domain.LogPath(stateDir))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), "\n"))
}

func TestFormatLog(t *testing.T) {
	ts := time.Date(2025, 12, 30, 9, 32, 51, 0, time.UTC)

	got := formatLog(ts, slog.LevelError, "upload", "upload image: boom")

	assert.Equal(t, "[2025-12-30 09:32:51] [ERROR] [upload] upload image: boom\n", got)
}
