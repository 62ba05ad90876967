package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogConfig_getLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		want    zapcore.Level
		wantErr bool
	}{
		{name: "default", level: "", want: zapcore.InfoLevel},
		{name: "debug", level: "debug", want: zapcore.DebugLevel},
		{name: "error", level: "error", want: zapcore.ErrorLevel},
		{name: "invalid", level: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := LogConfig{Level: tt.level}.getLevel()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, level.Level())
		})
	}
}

func TestLogConfig_getEncoder(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "hello"}

	enc, err := LogConfig{Format: "json"}.getEncoder()
	require.NoError(t, err)
	buf, err := enc.EncodeEntry(entry, []zapcore.Field{zap.Int("keys", 3)})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `"msg":"hello"`)
	require.Contains(t, buf.String(), `"keys":3`)

	enc, err = LogConfig{Format: "console"}.getEncoder()
	require.NoError(t, err)
	buf, err = enc.EncodeEntry(entry, nil)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "INFO")

	_, err = LogConfig{Format: "xml"}.getEncoder()
	require.EqualError(t, err, "unsupported log format: xml")
}

func TestNewLoggerWritesToFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "server.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Filename = filename

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("keyspace rehashed", zap.Int("to_buckets", 32))
	logger.Debug("filtered out")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], `"to_buckets":32`)
}

func TestNewLoggerRejectsBadConfig(t *testing.T) {
	_, err := NewLogger(LogConfig{Level: "nope"})
	require.Error(t, err)

	_, err = NewLogger(LogConfig{Format: "yaml"})
	require.Error(t, err)
}
