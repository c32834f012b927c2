// Package vsfs implements the metadata layer of spec §4.3: typed views
// over raw 4096-byte blocks — the superblock, the inode table, and
// directory blocks — grounded on the same read-a-block /
// decode-with-encoding/binary idiom the teacher uses throughout
// filesystem/ext4 (see superblock.go, directoryentry.go).
package vsfs

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// Magic is the superblock's required magic number ("VSFS" packed as
// a little-endian u32).
const Magic uint32 = 0x56534653

// SuperblockSize is the on-disk size of the superblock structure,
// padded to a round number well inside block 0.
const SuperblockSize = 128

// superblockUsed is the number of meaningful bytes spec §3 defines,
// before our additive volume_uuid field.
const superblockUsed = 36

// Superblock mirrors spec §3's layout exactly for the fields spec.md
// names; VolumeUUID is an additive field from SPEC_FULL.md §3, written
// only by the formatter and tolerated as all-zero on older images.
type Superblock struct {
	Magic        uint32
	BlockSize    uint32
	TotalBlocks  uint32
	InodeCount   uint32
	JournalBlock uint32
	InodeBitmap  uint32
	DataBitmap   uint32
	InodeStart   uint32
	DataStart    uint32
	VolumeUUID   uuid.UUID
}

// ReadSuperblock reads and decodes block 0, verifying invariant I1.
func ReadSuperblock(dev *device.Device) (*Superblock, error) {
	buf, err := dev.ReadBlock(0)
	if err != nil {
		return nil, fmt.Errorf("read superblock: %w", err)
	}
	return superblockFromBytes(buf)
}

func superblockFromBytes(b []byte) (*Superblock, error) {
	if len(b) < SuperblockSize {
		return nil, fmt.Errorf("%w: superblock block is %d bytes, need at least %d", vsfserr.ErrCorruptImage, len(b), SuperblockSize)
	}
	sb := &Superblock{
		Magic:        binary.LittleEndian.Uint32(b[0:4]),
		BlockSize:    binary.LittleEndian.Uint32(b[4:8]),
		TotalBlocks:  binary.LittleEndian.Uint32(b[8:12]),
		InodeCount:   binary.LittleEndian.Uint32(b[12:16]),
		JournalBlock: binary.LittleEndian.Uint32(b[16:20]),
		InodeBitmap:  binary.LittleEndian.Uint32(b[20:24]),
		DataBitmap:   binary.LittleEndian.Uint32(b[24:28]),
		InodeStart:   binary.LittleEndian.Uint32(b[28:32]),
		DataStart:    binary.LittleEndian.Uint32(b[32:36]),
	}
	if sb.Magic != Magic {
		return nil, fmt.Errorf("%w: magic 0x%X, expected 0x%X", vsfserr.ErrCorruptImage, sb.Magic, Magic)
	}
	// VolumeUUID is tolerated all-zero for images written before this
	// field existed: it is copied as-is and never validated.
	copy(sb.VolumeUUID[:], b[superblockUsed:superblockUsed+16])
	return sb, nil
}

// ToBytes encodes the superblock back into a 4096-byte block image. The
// core never calls this except from the formatter — spec.md treats the
// superblock as created once and never rewritten by create/install.
func (sb *Superblock) ToBytes() []byte {
	b := make([]byte, device.BlockSize)
	binary.LittleEndian.PutUint32(b[0:4], sb.Magic)
	binary.LittleEndian.PutUint32(b[4:8], sb.BlockSize)
	binary.LittleEndian.PutUint32(b[8:12], sb.TotalBlocks)
	binary.LittleEndian.PutUint32(b[12:16], sb.InodeCount)
	binary.LittleEndian.PutUint32(b[16:20], sb.JournalBlock)
	binary.LittleEndian.PutUint32(b[20:24], sb.InodeBitmap)
	binary.LittleEndian.PutUint32(b[24:28], sb.DataBitmap)
	binary.LittleEndian.PutUint32(b[28:32], sb.InodeStart)
	binary.LittleEndian.PutUint32(b[32:36], sb.DataStart)
	copy(b[superblockUsed:superblockUsed+16], sb.VolumeUUID[:])
	return b
}

// InodeBlockCount returns how many 4096-byte blocks the inode table spans.
func (sb *Superblock) InodeBlockCount() uint32 {
	n := sb.InodeCount / InodesPerBlock
	if sb.InodeCount%InodesPerBlock != 0 {
		n++
	}
	return n
}
