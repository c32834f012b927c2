// Package format implements the image formatter mentioned as an external
// collaborator in spec §1: it writes a valid superblock, bitmaps, root
// inode, and empty journal onto a raw file, so that internal/txn's Create
// and Install have a conforming image to operate on. It is not part of
// the journaled core itself — grounded on how go-diskfs exposes its own
// formatter as a library entry point (ext4.Create) alongside the reader
// (ext4.Read), rather than folding formatting into the core package.
package format

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trustelem/vsfsjournal/internal/bitmap"
	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/journal"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
)

// Params configures a freshly formatted image's geometry.
type Params struct {
	// TotalBlocks is the image's total block count. Must be large enough
	// to hold the superblock, both bitmaps, the journal region, the
	// inode table, and at least one data block.
	TotalBlocks uint32
	// InodeCount is the number of inode slots the image provides.
	InodeCount uint32
	// VolumeUUID identifies the formatted volume. A random v4 UUID is
	// generated if the zero value is passed.
	VolumeUUID uuid.UUID
}

// fixed block layout: superblock, inode bitmap, data bitmap, then the
// journal region, then the inode table, then the data region.
const (
	superblockBlock  uint32 = 0
	inodeBitmapBlock uint32 = 1
	dataBitmapBlock  uint32 = 2
	journalBlock     uint32 = 3
)

// Geometry is the derived layout that Plan computes for a given Params,
// without writing anything, so callers (and tests) can validate sizing up
// front.
type Geometry struct {
	Superblock  vsfs.Superblock
	InodeBlocks uint32
	DataBlocks  uint32
}

// Plan computes the on-disk layout for p, returning an error if
// TotalBlocks is too small to hold the fixed regions plus one data block.
func Plan(p Params) (Geometry, error) {
	if p.InodeCount == 0 {
		return Geometry{}, fmt.Errorf("inode count must be positive")
	}
	inodeBlocks := p.InodeCount / vsfs.InodesPerBlock
	if p.InodeCount%vsfs.InodesPerBlock != 0 {
		inodeBlocks++
	}
	inodeStart := journalBlock + journal.RegionBlocks
	dataStart := inodeStart + inodeBlocks
	if p.TotalBlocks <= dataStart {
		return Geometry{}, fmt.Errorf("total blocks %d too small: layout needs at least %d blocks before the data region", p.TotalBlocks, dataStart+1)
	}
	dataBlocks := p.TotalBlocks - dataStart

	vol := p.VolumeUUID
	if vol == uuid.Nil {
		vol = uuid.New()
	}

	sb := vsfs.Superblock{
		Magic:        vsfs.Magic,
		BlockSize:    device.BlockSize,
		TotalBlocks:  p.TotalBlocks,
		InodeCount:   p.InodeCount,
		JournalBlock: journalBlock,
		InodeBitmap:  inodeBitmapBlock,
		DataBitmap:   dataBitmapBlock,
		InodeStart:   inodeStart,
		DataStart:    dataStart,
		VolumeUUID:   vol,
	}
	return Geometry{Superblock: sb, InodeBlocks: inodeBlocks, DataBlocks: dataBlocks}, nil
}

// Create formats dev according to p: superblock, inode and data bitmaps
// with the root inode/block pre-allocated, an inode table with a root
// directory inode at inode 0, an empty root directory block, and a
// clean journal region. dev must already be sized to p.TotalBlocks
// blocks (spec §4.1: the core never resizes the image).
func Create(dev *device.Device, p Params) (*vsfs.Superblock, error) {
	geo, err := Plan(p)
	if err != nil {
		return nil, err
	}
	sb := geo.Superblock
	if int64(sb.TotalBlocks) != dev.Blocks() {
		return nil, fmt.Errorf("requested %d total blocks but image has %d", sb.TotalBlocks, dev.Blocks())
	}

	if err := dev.WriteBlock(int64(superblockBlock), sb.ToBytes()); err != nil {
		return nil, fmt.Errorf("write superblock: %w", err)
	}

	inodeBitmap := bitmap.New()
	inodeBitmap.Set(0) // root inode
	if err := dev.WriteBlock(int64(inodeBitmapBlock), inodeBitmap.ToBytes()); err != nil {
		return nil, fmt.Errorf("write inode bitmap: %w", err)
	}

	dataBitmap := bitmap.New()
	dataBitmap.Set(0) // root directory's data block, relative to data_start
	if err := dev.WriteBlock(int64(dataBitmapBlock), dataBitmap.ToBytes()); err != nil {
		return nil, fmt.Errorf("write data bitmap: %w", err)
	}

	if err := journal.Clear(dev, &sb); err != nil {
		return nil, fmt.Errorf("write empty journal: %w", err)
	}

	now := uint32(time.Now().Unix())
	rootInode := &vsfs.Inode{
		Type:  vsfs.TypeDir,
		Links: 1,
		Size:  uint32(device.BlockSize),
		Ctime: now,
		Mtime: now,
	}
	rootInode.Direct[0] = sb.DataStart

	for i := uint32(0); i < geo.InodeBlocks; i++ {
		buf := make([]byte, device.BlockSize)
		if i == 0 {
			if err := vsfs.WriteInodeInto(buf, &sb, 0, rootInode); err != nil {
				return nil, fmt.Errorf("write root inode: %w", err)
			}
		}
		if err := dev.WriteBlock(int64(sb.InodeStart+i), buf); err != nil {
			return nil, fmt.Errorf("write inode table block %d: %w", i, err)
		}
	}

	emptyDirBlock := make([]byte, device.BlockSize)
	if err := dev.WriteBlock(int64(sb.DataStart), emptyDirBlock); err != nil {
		return nil, fmt.Errorf("write root directory block: %w", err)
	}
	for i := uint32(1); i < geo.DataBlocks; i++ {
		if err := dev.WriteBlock(int64(sb.DataStart)+int64(i), make([]byte, device.BlockSize)); err != nil {
			return nil, fmt.Errorf("write data block %d: %w", i, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"total_blocks": sb.TotalBlocks,
		"inode_count":  sb.InodeCount,
		"volume_uuid":  sb.VolumeUUID.String(),
	}).Info("format: image written")

	return &sb, nil
}
