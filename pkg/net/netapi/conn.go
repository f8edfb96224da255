package netapi

import (
	"bufio"
	"io"
	"net"
	"time"
)

type multipleReaderTCPConn struct {
	*net.TCPConn
	mr io.Reader
}

func (m *multipleReaderTCPConn) Read(b []byte) (int, error) {
	return m.mr.Read(b)
}

type multipleReaderConn struct {
	net.Conn
	mr io.Reader
}

func NewMultipleReaderConn(c net.Conn, r io.Reader) net.Conn {
	tc, ok := c.(*net.TCPConn)
	if ok {
		return &multipleReaderTCPConn{tc, r}
	}

	return &multipleReaderConn{c, r}
}

func (m *multipleReaderConn) Read(b []byte) (int, error) {
	return m.mr.Read(b)
}

// NewPrefixBytesConn returns a conn whose reads drain prefix before
// reading from c.
func NewPrefixBytesConn(c net.Conn, prefix ...[]byte) net.Conn {
	if len(prefix) == 0 {
		return c
	}

	buf := net.Buffers(nil)
	for _, v := range prefix {
		if len(v) > 0 {
			buf = append(buf, v)
		}
	}

	if len(buf) == 0 {
		return c
	}

	return NewMultipleReaderConn(c, io.MultiReader(&buf, c))
}

// MergeBufioReaderConn moves whatever r buffered beyond what was consumed
// back in front of c.
func MergeBufioReaderConn(c net.Conn, r *bufio.Reader) (net.Conn, error) {
	if r.Buffered() <= 0 {
		return c, nil
	}

	data, err := r.Peek(r.Buffered())
	if err != nil {
		return nil, err
	}

	return NewPrefixBytesConn(c, append([]byte(nil), data...)), nil
}

// TimeoutConn bounds every Read and Write by Timeout, like a stream
// timeout. A zero Timeout leaves the deadlines untouched.
type TimeoutConn struct {
	net.Conn
	Timeout time.Duration
}

func (t *TimeoutConn) Read(b []byte) (int, error) {
	if t.Timeout > 0 {
		if err := t.Conn.SetReadDeadline(time.Now().Add(t.Timeout)); err != nil {
			return 0, err
		}
	}

	return t.Conn.Read(b)
}

func (t *TimeoutConn) Write(b []byte) (int, error) {
	if t.Timeout > 0 {
		if err := t.Conn.SetWriteDeadline(time.Now().Add(t.Timeout)); err != nil {
			return 0, err
		}
	}

	return t.Conn.Write(b)
}
