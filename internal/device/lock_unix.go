//go:build !windows

package device

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func fd(f File) (int, bool) {
	type fder interface {
		Fd() uintptr
	}
	fdr, ok := f.(fder)
	if !ok {
		return 0, false
	}
	return int(fdr.Fd()), true
}

func lockFile(f File) error {
	n, ok := fd(f)
	if !ok {
		// File implementations without an Fd() are not locked.
		return nil
	}
	if err := unix.Flock(n, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return fmt.Errorf("flock: %w", err)
	}
	return nil
}

func unlockFile(f File) error {
	n, ok := fd(f)
	if !ok {
		return nil
	}
	return unix.Flock(n, unix.LOCK_UN)
}
