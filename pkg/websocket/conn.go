package websocket

import (
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Conn is an upgraded server side connection. Framing is done by
// gobwas/ws; Receive and Send may be called from different goroutines.
type Conn struct {
	net.Conn

	result       *Result
	fragmentSize int

	rmu       sync.Mutex
	wmu       sync.Mutex
	closeOnce sync.Once
}

func newConn(c net.Conn, result *Result, fragmentSize int) *Conn {
	return &Conn{
		Conn:         c,
		result:       result,
		fragmentSize: fragmentSize,
	}
}

// Result returns the handshake request this connection was upgraded with.
func (c *Conn) Result() *Result { return c.result }

type lockedWriter struct{ c *Conn }

func (w lockedWriter) Write(b []byte) (int, error) {
	w.c.wmu.Lock()
	defer w.c.wmu.Unlock()
	return w.c.Conn.Write(b)
}

// Receive returns the next text or binary message. Pings are answered and
// a close frame is acknowledged, after which Receive returns a
// wsutil.ClosedError.
func (c *Conn) Receive() (ws.OpCode, []byte, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	controlHandler := wsutil.ControlFrameHandler(lockedWriter{c}, ws.StateServerSide)
	rd := &wsutil.Reader{
		Source:          c.Conn,
		State:           ws.StateServerSide,
		CheckUTF8:       true,
		SkipHeaderCheck: false,
		OnIntermediate:  controlHandler,
	}

	for {
		hdr, err := rd.NextFrame()
		if err != nil {
			return 0, nil, err
		}

		if hdr.OpCode.IsControl() {
			if err := controlHandler(hdr, rd); err != nil {
				return 0, nil, err
			}
			continue
		}

		data, err := io.ReadAll(rd)
		return hdr.OpCode, data, err
	}
}

// Send writes payload as one message, split in frames of at most the
// configured fragment size.
func (c *Conn) Send(op ws.OpCode, payload []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.fragmentSize <= 0 || len(payload) <= c.fragmentSize {
		return wsutil.WriteServerMessage(c.Conn, op, payload)
	}

	for len(payload) > 0 {
		n := min(len(payload), c.fragmentSize)

		frame := ws.NewFrame(op, n == len(payload), payload[:n])
		if err := ws.WriteFrame(c.Conn, frame); err != nil {
			return err
		}

		op = ws.OpContinuation
		payload = payload[n:]
	}

	return nil
}

// SendText sends s as a text message.
func (c *Conn) SendText(s string) error { return c.Send(ws.OpText, []byte(s)) }

// Close sends a normal closure frame and closes the socket. Only the
// first call does anything.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.wmu.Lock()
		body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
		_ = ws.WriteFrame(c.Conn, ws.NewCloseFrame(body))
		c.wmu.Unlock()

		err = c.Conn.Close()
	})
	return err
}
