package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    zapcore.Level
		wantErr bool
	}{
		{"DEBUG", zapcore.DebugLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"WARNING", zapcore.WarnLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"ERROR", zapcore.ErrorLevel, false},
		{"CRITICAL", zapcore.DPanicLevel, false},
		{"LOUD", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_ConsoleFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("WARNING", "", &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("Mealie doesn't have tag slug 'duplicate'. Skipping validation.")
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "Skipping validation")
}

func TestNew_FileGetsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flagaudit.log")

	var buf bytes.Buffer
	log, err := New("DEBUG", path, &buf)
	require.NoError(t, err)

	log.Debug("validating tag", zap.String("recipe", "beef-stew"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "validating tag", entry["msg"])
	assert.Equal(t, "beef-stew", entry["recipe"])
	assert.Contains(t, buf.String(), "validating tag")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New("VERBOSE", "", nil)
	assert.Error(t, err)
}
