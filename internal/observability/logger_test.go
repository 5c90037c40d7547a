package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"DEBUG", zap.DebugLevel},
		{"info", zap.InfoLevel},
		{"warn", zap.WarnLevel},
		{"warning", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"", zap.InfoLevel},
		{"verbose", zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fieldctl.log")

	logger, err := NewLogger(types.LogConfig{
		Level:   "warn",
		Format:  "json",
		Outputs: []string{path},
	})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", zap.String("record_id", "r1"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"msg":"kept"`)
	assert.Contains(t, lines[0], `"record_id":"r1"`)
}

func TestNewLoggerRotation(t *testing.T) {
	dir := t.TempDir()
	rotated := filepath.Join(dir, "rotated.log")

	logger, err := NewLogger(types.LogConfig{
		Level:    "info",
		Outputs:  []string{filepath.Join(dir, "ignored.log")},
		Rotation: types.RotationConfig{Enable: true, Filename: rotated},
	})
	require.NoError(t, err)
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(rotated)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NoFileExists(t, filepath.Join(dir, "ignored.log"))
}

func TestNewLoggerDefaultsToStderr(t *testing.T) {
	logger, err := NewLogger(types.LogConfig{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestNewLoggerUnwritableFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := NewLogger(types.LogConfig{Outputs: []string{filepath.Join(blocker, "x.log")}})
	assert.Error(t, err)
}

func TestRotatingWriterLimits(t *testing.T) {
	tests := []struct {
		name                  string
		in                    types.RotationConfig
		size, backups, maxAge int
	}{
		{"unset takes defaults", types.RotationConfig{}, 10, 1, 7},
		{"explicit values kept", types.RotationConfig{MaxSizeMB: 5, MaxBackups: 3, MaxAgeDays: 2}, 5, 3, 2},
		{"negative disables", types.RotationConfig{MaxSizeMB: 50, MaxBackups: -1, MaxAgeDays: -1}, 50, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := rotatingWriter("app.log", tt.in)
			assert.Equal(t, "app.log", w.Filename)
			assert.Equal(t, tt.size, w.MaxSize)
			assert.Equal(t, tt.backups, w.MaxBackups)
			assert.Equal(t, tt.maxAge, w.MaxAge)
		})
	}
}
