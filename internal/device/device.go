// Package device implements the block-addressable device that every other
// vsfsjournal layer reads and writes through. It is the Go equivalent of
// go-diskfs's util.File: a thin positioned-I/O wrapper, with no caching,
// over whatever *os.File backs the image.
package device

import (
	"fmt"
	"io"
	"os"

	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// BlockSize is the fixed block size of a vsfsjournal image, in bytes.
const BlockSize = 4096

// File is the subset of *os.File that a Device needs. It is satisfied by
// *os.File directly; any other implementation, such as an in-memory one,
// can stand in for it.
type File interface {
	io.ReaderAt
	io.WriterAt
	Stat() (os.FileInfo, error)
	Close() error
}

// Device is a byte-addressable file presenting fixed-size blocks indexed
// from 0. It owns no cache: every ReadBlock/WriteBlock call hits the
// underlying file, and ordering between callers is left entirely to the
// journal's two-phase discipline (see internal/journal).
type Device struct {
	f      File
	blocks int64
	locked bool
}

// Open wraps f as a Device, verifying that its size is an exact multiple
// of BlockSize. vsfsjournal never resizes the underlying file.
func Open(f File) (*Device, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	size := st.Size()
	if size%BlockSize != 0 {
		return nil, fmt.Errorf("%w: image size %d is not a multiple of block size %d", vsfserr.ErrCorruptImage, size, BlockSize)
	}
	return &Device{f: f, blocks: size / BlockSize}, nil
}

// Blocks returns the total number of addressable blocks in the image.
func (d *Device) Blocks() int64 {
	return d.blocks
}

// ReadBlock reads exactly BlockSize bytes starting at block n. A short
// read is treated as fatal image corruption, never retried.
func (d *Device) ReadBlock(n int64) ([]byte, error) {
	if n < 0 || n >= d.blocks {
		return nil, fmt.Errorf("%w: block %d out of range [0,%d)", vsfserr.ErrIOFatal, n, d.blocks)
	}
	buf := make([]byte, BlockSize)
	read, err := d.f.ReadAt(buf, n*BlockSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: read block %d: %v", vsfserr.ErrIOFatal, n, err)
	}
	if read != BlockSize {
		return nil, fmt.Errorf("%w: read %d bytes instead of %d for block %d", vsfserr.ErrIOFatal, read, BlockSize, n)
	}
	return buf, nil
}

// WriteBlock writes exactly BlockSize bytes of buf to block n. buf must
// be exactly BlockSize bytes long. A short write is fatal.
func (d *Device) WriteBlock(n int64, buf []byte) error {
	if n < 0 || n >= d.blocks {
		return fmt.Errorf("%w: block %d out of range [0,%d)", vsfserr.ErrIOFatal, n, d.blocks)
	}
	if len(buf) != BlockSize {
		return fmt.Errorf("%w: write block %d: buffer is %d bytes, expected %d", vsfserr.ErrIOFatal, n, len(buf), BlockSize)
	}
	wrote, err := d.f.WriteAt(buf, n*BlockSize)
	if err != nil {
		return fmt.Errorf("%w: write block %d: %v", vsfserr.ErrIOFatal, n, err)
	}
	if wrote != BlockSize {
		return fmt.Errorf("%w: wrote %d bytes instead of %d for block %d", vsfserr.ErrIOFatal, wrote, BlockSize, n)
	}
	return nil
}

// Close releases the advisory lock, if held, and closes the underlying file.
func (d *Device) Close() error {
	if d.locked {
		_ = unlockFile(d.f)
		d.locked = false
	}
	return d.f.Close()
}

// Lock takes an advisory exclusive lock on the underlying file for the
// duration of the command, making the "exclusively owned by the running
// process" assumption of the concurrency model an enforced precondition
// rather than an unchecked one. It is a no-op on platforms where advisory
// locking is unavailable.
func (d *Device) Lock() error {
	if err := lockFile(d.f); err != nil {
		return fmt.Errorf("%w: %v", vsfserr.ErrBusy, err)
	}
	d.locked = true
	return nil
}
