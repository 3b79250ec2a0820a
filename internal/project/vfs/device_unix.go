//go:build unix

package vfs

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// SameDevice reports whether a and b are on the same device.
func (f *OSFS) SameDevice(a, b string) (bool, error) {
	var sa, sb unix.Stat_t
	if err := statRetry(a, &sa); err != nil {
		return false, err
	}
	if err := statRetry(b, &sb); err != nil {
		return false, err
	}
	return sa.Dev == sb.Dev, nil
}

func statRetry(path string, st *unix.Stat_t) error {
	for {
		err := unix.Stat(path, st)
		if err == syscall.EINTR {
			continue
		}
		return err
	}
}
