// Package txn composes the device, bitmap, vsfs, and journal layers into
// the two user-visible transactions spec §4.5–4.6 define: Create (stage +
// commit) and Install (replay + clear).
package txn

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trustelem/vsfsjournal/internal/bitmap"
	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/journal"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// rootInodeNumber is the inode number of the filesystem root, per spec I3.
const rootInodeNumber uint32 = 0

// nowFn is overridable by tests to make ctime/mtime deterministic,
// following the teacher's own pattern of isolating time.Now for testability.
var nowFn = time.Now

// Create stages, and commits to the journal, a new empty regular file
// named name in the root directory. It does not install the transaction;
// call Install separately to make it visible in the home blocks.
//
// Order of the algorithm mirrors spec §4.5 exactly: validate, read,
// reject-if-exists, pick slot, pick inode, build three modified block
// images, then begin/append-data(bitmap)/append-data(inode
// block)/append-data(dir block)/append-commit in that fixed order.
func Create(dev *device.Device, sb *vsfs.Superblock, name string) error {
	if len(name) >= vsfs.NameLen {
		return fmt.Errorf("%w: %q is %d bytes, max is %d", vsfserr.ErrNameTooLong, name, len(name), vsfs.NameLen-1)
	}

	inodeBitmapBuf, err := dev.ReadBlock(int64(sb.InodeBitmap))
	if err != nil {
		return fmt.Errorf("read inode bitmap: %w", err)
	}
	inodeBitmap, err := bitmap.FromBytes(inodeBitmapBuf)
	if err != nil {
		return fmt.Errorf("decode inode bitmap: %w", err)
	}

	root, err := vsfs.ReadInode(dev, sb, rootInodeNumber)
	if err != nil {
		return fmt.Errorf("read root inode: %w", err)
	}
	if root.Type != vsfs.TypeDir {
		return fmt.Errorf("%w: root inode type is %d", vsfserr.ErrNotADirectory, root.Type)
	}

	rootDataBlock := int64(root.Direct[0])
	dirBlock, err := dev.ReadBlock(rootDataBlock)
	if err != nil {
		return fmt.Errorf("read root directory block: %w", err)
	}
	entries, err := vsfs.ReadDirents(dirBlock)
	if err != nil {
		return fmt.Errorf("decode root directory: %w", err)
	}

	if vsfs.FindDirentByName(entries, name) >= 0 {
		return fmt.Errorf("%w: %q", vsfserr.ErrAlreadyExists, name)
	}

	slot := vsfs.FindFreeDirentSlot(entries)
	if slot < 0 {
		return fmt.Errorf("%w: root directory has no free slot", vsfserr.ErrDirFull)
	}

	newInum, ok := inodeBitmap.FindFirstZero(uint(sb.InodeCount))
	if !ok {
		return fmt.Errorf("%w: no inode below %d is free", vsfserr.ErrNoFreeInode, sb.InodeCount)
	}

	// Build the three modified block images in memory. Nothing here has
	// touched disk yet except for the reads above.
	newInodeBitmap := inodeBitmap.Clone()
	newInodeBitmap.Set(newInum)
	newInodeBitmapBytes := newInodeBitmap.ToBytes()

	inodeBlockNo, _ := vsfs.InodeLocation(sb, uint32(newInum))
	inodeBlockBuf, err := dev.ReadBlock(inodeBlockNo)
	if err != nil {
		return fmt.Errorf("read inode block: %w", err)
	}
	now := uint32(nowFn().Unix())
	newInode := &vsfs.Inode{
		Type:  vsfs.TypeRegular,
		Links: 1,
		Size:  0,
		Ctime: now,
		Mtime: now,
	}
	if err := vsfs.WriteInodeInto(inodeBlockBuf, sb, uint32(newInum), newInode); err != nil {
		return fmt.Errorf("stage inode: %w", err)
	}

	newDirBlock := make([]byte, device.BlockSize)
	copy(newDirBlock, dirBlock)
	if err := vsfs.WriteDirentInto(newDirBlock, slot, uint32(newInum), name); err != nil {
		return fmt.Errorf("stage directory entry: %w", err)
	}

	// Everything below is journal I/O: the order is fixed (bitmap, inode
	// block, directory block) for determinism and test reproducibility,
	// even though replay order is not semantically significant.
	j, err := journal.Begin(dev, sb)
	if err != nil {
		return err
	}
	if err := j.AppendData(sb.InodeBitmap, newInodeBitmapBytes); err != nil {
		return err
	}
	if err := j.AppendData(uint32(inodeBlockNo), inodeBlockBuf); err != nil {
		return err
	}
	if err := j.AppendData(uint32(rootDataBlock), newDirBlock); err != nil {
		return err
	}
	if err := j.AppendCommit(); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"name":        name,
		"inode":       newInum,
		"dirent_slot": slot,
	}).Info("create: transaction staged and committed, pending install")
	return nil
}
