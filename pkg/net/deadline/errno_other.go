//go:build !unix

package deadline

import (
	"errors"
	"syscall"
)

type Errno = syscall.Errno

func isReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNABORTED)
}

func ErrnoOf(err error) (int, string) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return 0, ""
	}

	return int(errno), errno.Error()
}
