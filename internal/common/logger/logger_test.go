package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.in))
		})
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")

	l := New("debug", "json", path)
	NewZapAdapter(l).
		WithFields(map[string]interface{}{"taskType": "normalize-response"}).
		WithError(errors.New("boom")).
		Info("processing job", map[string]interface{}{"jobKey": int64(42)})
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.True(t, strings.Contains(line, `"msg":"processing job"`))
	assert.True(t, strings.Contains(line, `"taskType":"normalize-response"`))
	assert.True(t, strings.Contains(line, `"jobKey":42`))
	assert.True(t, strings.Contains(line, `"error":"boom"`))
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worker.log")

	l := New("warn", "json", path)
	l.Info("hidden")
	l.Warn("shown")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestLoggers_DoNotPanic(t *testing.T) {
	for _, l := range []Logger{NewNoOpLogger(), NewTestLogger(t), NewStructured("error", "console")} {
		assert.NotPanics(t, func() {
			l.With(map[string]interface{}{"a": 1}).Debug("debug", nil)
			l.Warn("warn", map[string]interface{}{"err": errors.New("x")})
		})
	}
}
