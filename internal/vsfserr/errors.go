// Package vsfserr defines the sentinel error kinds shared by every layer
// of vsfsjournal, so that the command layer can classify a failure with a
// single errors.Is check instead of string matching.
package vsfserr

import "errors"

var (
	// ErrIOFatal marks a short read or write against the block device.
	// The image is assumed truncated or corrupted; it is never retried.
	ErrIOFatal = errors.New("vsfsjournal: fatal i/o error")

	// ErrCorruptImage marks a superblock whose magic does not match.
	ErrCorruptImage = errors.New("vsfsjournal: corrupt image")

	// ErrCorruptJournal marks a bad journal magic or an unrecognized
	// record type. Left for human intervention: never cleared automatically.
	ErrCorruptJournal = errors.New("vsfsjournal: corrupt journal")

	// ErrIncompleteTransaction marks a journal holding DATA records with
	// no trailing COMMIT. Install leaves the journal untouched.
	ErrIncompleteTransaction = errors.New("vsfsjournal: incomplete transaction")

	// ErrNameTooLong marks a name of 28 bytes or more.
	ErrNameTooLong = errors.New("vsfsjournal: name too long")

	// ErrAlreadyExists marks a name already present in the root directory.
	ErrAlreadyExists = errors.New("vsfsjournal: name already exists")

	// ErrDirFull marks a root directory block with no free dirent slot.
	ErrDirFull = errors.New("vsfsjournal: directory full")

	// ErrNoFreeInode marks an inode bitmap with no clear bit below inode_count.
	ErrNoFreeInode = errors.New("vsfsjournal: no free inode")

	// ErrNotADirectory marks a root inode whose type is not 2.
	ErrNotADirectory = errors.New("vsfsjournal: root is not a directory")

	// ErrJournalFull marks a transaction that would overflow the journal region.
	ErrJournalFull = errors.New("vsfsjournal: journal full")

	// ErrBusy marks failure to take the advisory exclusive lock on the image.
	ErrBusy = errors.New("vsfsjournal: image busy")
)
