package listener

import (
	"errors"
	"fmt"
)

var (
	ErrBind          = errors.New("could not open listening socket")
	ErrAccept        = errors.New("accept failed")
	ErrAcceptTimeout = errors.New("accept timeout")
)

// BindError is returned when no port in the tried range could be bound.
// Errno and Errstr describe the last failed attempt.
type BindError struct {
	Host   string
	From   int
	To     int
	Errno  int
	Errstr string
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("%v on %s:[%d-%d]: %s (errno %d)", ErrBind, e.Host, e.From, e.To, e.Errstr, e.Errno)
}

func (e *BindError) Unwrap() error { return e.Err }

func (e *BindError) Is(err error) bool { return err == ErrBind }

type AcceptError struct {
	Timeout bool
	Err     error
}

func (e *AcceptError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%v: %v", ErrAcceptTimeout, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrAccept, e.Err)
}

func (e *AcceptError) Unwrap() error { return e.Err }

func (e *AcceptError) Is(err error) bool {
	if err == ErrAcceptTimeout {
		return e.Timeout
	}
	return err == ErrAccept
}
