//go:build unix

package mapping

import "golang.org/x/sys/unix"

func adviseSequential(b []byte) {
	// Best-effort hint, errors are deliberately dropped.
	_ = unix.Madvise(b, unix.MADV_SEQUENTIAL)
}
