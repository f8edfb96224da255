//go:build unix

package deadline

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

type Errno = syscall.Errno

func isReset(err error) bool {
	return errors.Is(err, unix.ECONNRESET) ||
		errors.Is(err, unix.EPIPE) ||
		errors.Is(err, unix.ECONNABORTED)
}

// ErrnoOf returns the errno carried by err and its symbolic name, or
// (0, "") when there is none.
func ErrnoOf(err error) (int, string) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return 0, ""
	}

	name := unix.ErrnoName(errno)
	if name == "" {
		name = errno.Error()
	}

	return int(errno), name
}
