package netapi

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBufioReaderConn(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	go func() {
		_, _ = c2.Write([]byte("line\r\nrest"))
		_ = c2.Close()
	}()

	br := bufio.NewReader(c1)
	line, err := br.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "line\r\n", line)

	conn, err := MergeBufioReaderConn(c1, br)
	require.NoError(t, err)

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "rest", string(data))
}

func TestMergeBufioReaderConnEmpty(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	conn, err := MergeBufioReaderConn(c1, bufio.NewReader(c1))
	require.NoError(t, err)
	assert.Same(t, c1, conn)
}

func TestPrefixBytesConn(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()

	go func() {
		_, _ = c2.Write([]byte("c"))
		_ = c2.Close()
	}()

	conn := NewPrefixBytesConn(c1, []byte("a"), nil, []byte("b"))

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestTimeoutConn(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	conn := &TimeoutConn{Conn: c1, Timeout: 50 * time.Millisecond}

	_, err := conn.Read(make([]byte, 1))
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))

	_, err = conn.Write([]byte("x"))
	assert.True(t, errors.Is(err, os.ErrDeadlineExceeded))

	go func() { _, _ = c2.Write([]byte("ok")) }()

	buf := make([]byte, 2)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(buf))
}
