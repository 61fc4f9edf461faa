package debug

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogger(t *testing.T) {
	t.Run("DefaultIsNop", func(t *testing.T) {
		SetLogger(nil)
		require.NotNil(t, Logger())
		assert.False(t, Logger().Core().Enabled(zapcore.ErrorLevel))
	})

	t.Run("SetLogger", func(t *testing.T) {
		var buf bytes.Buffer
		SetLogger(NewWriterLogger(&buf, zapcore.DebugLevel))
		t.Cleanup(func() { SetLogger(nil) })

		Named("wrapper").Info("activated", zap.Float64("sample_rate", 48000))

		output := buf.String()
		assert.Contains(t, output, "wrapper")
		assert.Contains(t, output, "activated")
		assert.Contains(t, output, "48000")
	})

	t.Run("LogLevels", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWriterLogger(&buf, zapcore.WarnLevel)

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warn message")
		logger.Error("error message")

		output := buf.String()
		assert.NotContains(t, output, "debug message")
		assert.NotContains(t, output, "info message")
		assert.Contains(t, output, "warn message")
		assert.Contains(t, output, "error message")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{" warn ", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := NewLogger(Config{Level: "loud"})
		assert.Error(t, err)
	})

	t.Run("FileOutput", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plugin.log")
		logger, err := NewLogger(Config{Level: "debug", JSON: true, FilePath: path})
		require.NoError(t, err)

		logger.Debug("to file", zap.String("key", "gain"))
		_ = logger.Sync()

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"to file"`)
		assert.Contains(t, string(data), `"key":"gain"`)
	})
}
