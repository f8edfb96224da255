package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Asutorufa/wsserver/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	buf := &bytes.Buffer{}

	z := NewLogger(0)
	z.SetOutput(buf)

	z.Debug("hidden")
	z.Info("accepted", "port", 8000)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=accepted")
	assert.Contains(t, buf.String(), "port=8000")
	assert.Contains(t, buf.String(), "log_test.go")

	z.SetLevel(slog.LevelDebug)
	assert.True(t, z.Enabled(slog.LevelDebug))
	z.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestOutputSource(t *testing.T) {
	buf := &bytes.Buffer{}
	DefaultLogger.SetOutput(buf)
	defer DefaultLogger.SetOutput(os.Stdout)

	Output(0, slog.LevelError, "boom", "err", "x")
	Warn("warned")

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "log_test.go")
}

func TestSetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wsserver.log")

	Set(config.Logcat{Level: "warn", File: path})
	defer SetLevel(slog.LevelInfo)

	Info("dropped")
	Error("kept")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}
