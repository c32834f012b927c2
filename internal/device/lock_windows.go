//go:build windows

package device

// Windows has no flock equivalent wired up here; the single-process
// ownership assumption in the concurrency model (spec §5) is left
// unenforced on this platform.
func lockFile(f File) error   { return nil }
func unlockFile(f File) error { return nil }
