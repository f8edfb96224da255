package websocket

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/Asutorufa/wsserver/pkg/config"
	"github.com/Asutorufa/wsserver/pkg/log"
	"github.com/Asutorufa/wsserver/pkg/metrics"
	"github.com/Asutorufa/wsserver/pkg/net/listener"
)

// Server accepts one websocket connection at a time on a listening
// endpoint and keeps the request of the last successful handshake for
// Path, Request and Header.
type Server struct {
	opts     config.Options
	endpoint *listener.Endpoint

	mu     sync.RWMutex
	conn   *Conn
	result *Result
	closed bool
}

// NewServer binds the endpoint, starting at opts.Port and moving to the
// next port while binding fails.
func NewServer(opts config.Options, bindOpts ...listener.BindOption) (*Server, error) {
	if opts.FragmentSize <= 0 {
		opts.FragmentSize = config.DefaultFragmentSize
	}

	bo := []listener.BindOption{listener.WithHost(opts.Host)}
	if opts.ProxyProtocol {
		bo = append(bo, listener.WithProxyProtocol())
	}

	endpoint, err := listener.Bind(opts.Port, append(bo, bindOpts...)...)
	if err != nil {
		return nil, err
	}

	if opts.Port != 0 && endpoint.Port() != opts.Port {
		log.Warn("requested port unavailable", "requested", opts.Port, "port", endpoint.Port())
	}
	log.Info("websocket server listening", "addr", endpoint.Addr())

	return &Server{opts: opts, endpoint: endpoint}, nil
}

func (s *Server) Port() int      { return s.endpoint.Port() }
func (s *Server) Addr() net.Addr { return s.endpoint.Addr() }

// Path returns the request path of the last successful handshake.
func (s *Server) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return ""
	}
	return s.result.Path()
}

// Request returns the request lines of the last successful handshake.
func (s *Server) Request() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return nil
	}
	return s.result.Request()
}

// Header looks name up in the last successful handshake, see
// [Result.Header].
func (s *Server) Header(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return "", false
	}
	return s.result.Header(name)
}

// Accept waits for a client and performs the opening handshake with it.
// The returned Conn belongs to the caller. A connection whose handshake
// failed is closed before the error is returned.
func (s *Server) Accept() (*Conn, error) {
	raw, err := s.endpoint.Accept(s.opts.TimeoutDuration())
	if err != nil {
		switch {
		case errors.Is(err, net.ErrClosed):
		case errors.Is(err, listener.ErrAcceptTimeout):
			log.Debug("websocket accept timeout", "err", err)
		default:
			log.Warn("websocket accept failed", "err", err)
		}
		return nil, err
	}

	start := time.Now()

	result, conn, err := Handshake(raw)

	metrics.Counter.AddHandshake(Reason(err))
	metrics.Counter.AddHandshakeDuration(time.Since(start).Seconds())

	if err != nil {
		log.Error("websocket handshake failed", "from", raw.RemoteAddr(), "reason", Reason(err), "err", err)

		var herr *HandshakeError
		if errors.As(err, &herr) {
			log.Debug("websocket handshake request", "request", herr.Request)
		}

		_ = raw.Close()
		return nil, err
	}

	c := newConn(conn, result, s.opts.FragmentSize)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = c.Close()
		return nil, net.ErrClosed
	}
	s.conn = c
	s.result = result
	s.mu.Unlock()

	metrics.Counter.SetConnectionActive(true)
	log.Info("websocket connection upgraded", "from", raw.RemoteAddr(), "path", result.Path())

	return c, nil
}

// Close closes the last accepted connection and the endpoint. Calling it
// again is a no-op.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	var err error
	if conn != nil {
		if er := conn.Close(); er != nil && !errors.Is(er, net.ErrClosed) {
			err = errors.Join(err, er)
		}
		metrics.Counter.SetConnectionActive(false)
	}

	if er := s.endpoint.Close(); er != nil {
		err = errors.Join(err, er)
	}

	return err
}
