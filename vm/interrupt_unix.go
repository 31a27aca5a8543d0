//go:build unix

package vm

import (
	"errors"

	"golang.org/x/sys/unix"
)

// interrupted reports whether a read failed only because a signal arrived.
func interrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}
