// Package deadline runs blocking socket operations inside a region that
// bounds them with a deadline and turns transport errors into *Fault.
package deadline

import (
	"errors"
	"io"
	"net"
	"os"
	"time"
)

type Setter interface {
	SetDeadline(time.Time) error
}

// Scope runs fn as a fallible I/O region.
//
// When timeout > 0 the deadline of s is armed before fn and cleared again on
// every exit path. Transport errors returned by fn, or raised while arming
// and clearing the deadline, come back as *Fault tagged with op; any other
// error is returned unchanged.
func Scope(s Setter, op string, timeout time.Duration, fn func() error) (err error) {
	if timeout > 0 && s != nil {
		if er := s.SetDeadline(time.Now().Add(timeout)); er != nil {
			return Classify(op, er)
		}

		defer func() {
			er := s.SetDeadline(time.Time{})
			if er != nil && err == nil && !errors.Is(er, net.ErrClosed) {
				err = Classify(op, er)
			}
		}()
	}

	if er := fn(); er != nil {
		return Classify(op, er)
	}

	return nil
}

type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindClosed
	KindReset
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindClosed:
		return "closed"
	case KindReset:
		return "reset"
	default:
		return "other"
	}
}

type Fault struct {
	Op   string
	Kind Kind
	Err  error
}

func (f *Fault) Error() string { return f.Op + " " + f.Kind.String() + ": " + f.Err.Error() }
func (f *Fault) Unwrap() error { return f.Err }
func (f *Fault) Timeout() bool { return f.Kind == KindTimeout }

// Classify wraps err into a *Fault when it comes from the transport.
// Errors that are already a *Fault, or that are not transport errors, are
// returned as is.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return err
	}

	if !isTransport(err) {
		return err
	}

	return &Fault{Op: op, Kind: kindOf(err), Err: err}
}

func isTransport(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}

	var errno Errno
	if errors.As(err, &errno) {
		return true
	}

	return errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe)
}

func kindOf(err error) Kind {
	var ne net.Error
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &ne) && ne.Timeout():
		return KindTimeout
	case isReset(err):
		return KindReset
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe):
		return KindClosed
	default:
		return KindOther
	}
}
