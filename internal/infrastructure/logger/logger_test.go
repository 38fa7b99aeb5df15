package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("creates console logger", func(t *testing.T) {
		l, err := New(Config{Level: "info", Format: "console"})
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("writes json to file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "velvet.log")
		l, err := New(Config{
			Level:  "debug",
			Format: "json",
			Output: path,
			Fields: map[string]string{"env": "test"},
		})
		require.NoError(t, err)

		l.Info("Model generated", zap.String("task_id", "mock_1"))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"Model generated"`)
		assert.Contains(t, string(data), `"task_id":"mock_1"`)
		assert.Contains(t, string(data), `"env":"test"`)
	})

	t.Run("rejects unwritable output", func(t *testing.T) {
		_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "velvet.log")})
		assert.Error(t, err)
	})

	t.Run("tees extra cores", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		l, err := New(Config{Level: "info", Format: "json", Output: "stderr"}, core)
		require.NoError(t, err)

		l.Info("tracked")
		assert.Equal(t, 1, recorded.FilterMessage("tracked").Len())
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestSecret(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"empty", "", ""},
		{"short", "abc", "****"},
		{"access token", "shpat_1234567890", "shpat_****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Secret("token", tt.value).String)
		})
	}
}
