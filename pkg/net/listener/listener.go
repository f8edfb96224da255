// Package listener owns the listening socket of the server: binding with
// port fallback, accepting with an optional timeout and closing once.
package listener

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/Asutorufa/wsserver/pkg/metrics"
	"github.com/Asutorufa/wsserver/pkg/net/deadline"
	"github.com/Asutorufa/wsserver/pkg/net/netapi"
	"github.com/pires/go-proxyproto"
)

// MaxPort is the last port tried by Bind.
const MaxPort = 10000

type bindOptions struct {
	host          string
	maxPort       int
	proxyProtocol bool
}

type BindOption func(*bindOptions)

// WithHost binds on host instead of all interfaces.
func WithHost(host string) BindOption {
	return func(o *bindOptions) {
		if host != "" {
			o.host = host
		}
	}
}

// WithMaxPort lowers or raises the last port tried.
func WithMaxPort(port int) BindOption {
	return func(o *bindOptions) { o.maxPort = port }
}

// WithProxyProtocol expects a PROXY protocol header in front of every
// accepted connection.
func WithProxyProtocol() BindOption {
	return func(o *bindOptions) { o.proxyProtocol = true }
}

type Endpoint struct {
	host          string
	port          int
	proxyProtocol bool

	ln        *net.TCPListener
	closeOnce sync.Once
}

// Bind listens on the first free port in [port, MaxPort]. A port above
// MaxPort is still tried once.
func Bind(port int, opts ...BindOption) (*Endpoint, error) {
	o := &bindOptions{
		host:    "0.0.0.0",
		maxPort: MaxPort,
	}
	for _, opt := range opts {
		opt(o)
	}

	last := max(port, o.maxPort)

	var lastErr error
	for p := port; p <= last; p++ {
		metrics.Counter.AddBindAttempt()

		ln, err := net.Listen("tcp", net.JoinHostPort(o.host, strconv.Itoa(p)))
		if err != nil {
			lastErr = err
			continue
		}

		tl, ok := ln.(*net.TCPListener)
		if !ok {
			_ = ln.Close()
			lastErr = errors.New("not a tcp listener")
			continue
		}

		return &Endpoint{
			host:          o.host,
			port:          tl.Addr().(*net.TCPAddr).Port,
			proxyProtocol: o.proxyProtocol,
			ln:            tl,
		}, nil
	}

	errno, errstr := deadline.ErrnoOf(lastErr)
	if errstr == "" && lastErr != nil {
		errstr = lastErr.Error()
	}

	return nil, &BindError{
		Host:   o.host,
		From:   port,
		To:     last,
		Errno:  errno,
		Errstr: errstr,
		Err:    lastErr,
	}
}

// Port returns the port actually bound, which may differ from the one
// requested.
func (e *Endpoint) Port() int { return e.port }

func (e *Endpoint) Addr() net.Addr { return e.ln.Addr() }

// Accept waits for the next connection. A timeout <= 0 waits forever;
// otherwise it bounds the wait and every later Read and Write on the
// returned conn.
func (e *Endpoint) Accept(timeout time.Duration) (net.Conn, error) {
	var conn net.Conn
	err := deadline.Scope(e.ln, "accept", timeout, func() (err error) {
		conn, err = e.ln.Accept()
		return err
	})
	if err != nil {
		var fault *deadline.Fault
		timedout := errors.As(err, &fault) && fault.Timeout()

		metrics.Counter.AddAcceptFailed(timedout)
		return nil, &AcceptError{Timeout: timedout, Err: err}
	}

	metrics.Counter.AddAccept()

	if e.proxyProtocol {
		conn = proxyproto.NewConn(conn)
	}

	return &netapi.TimeoutConn{Conn: conn, Timeout: max(timeout, 0)}, nil
}

// Close closes the listening socket. Only the first call does anything.
func (e *Endpoint) Close() error {
	var err error
	e.closeOnce.Do(func() { err = e.ln.Close() })
	return err
}
