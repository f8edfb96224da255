package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriterRotate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wsserver.log")

	w := NewLogWriter(path)
	w.MaxSize = 8
	w.Keep = 2
	w.Interval = 0
	defer w.Close()

	for i := 0; i < 5; i++ {
		_, err := w.Write([]byte("0123456789\n"))
		require.NoError(t, err)
	}

	files, err := os.ReadDir(dir)
	require.NoError(t, err)

	var rotated int
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "wsserver.log_") {
			rotated++
		}
	}

	assert.Equal(t, 2, rotated)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789\n", string(data))
}

func TestFileWriterNoRotate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "wsserver.log")

	w := NewLogWriter(path)
	_, err := w.Write([]byte("a\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("b\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}
