package vsfs

import (
	"encoding/binary"
	"fmt"

	"github.com/trustelem/vsfsjournal/internal/device"
)

// InodeSize is the on-disk size of one inode, in bytes.
const InodeSize = 128

// InodesPerBlock is the number of fixed-size inodes that fit in one block.
const InodesPerBlock = device.BlockSize / InodeSize

// Inode types, per spec §3.
const (
	TypeFree    uint16 = 0
	TypeRegular uint16 = 1
	TypeDir     uint16 = 2
)

// DirectPointers is the number of direct block pointers an inode carries.
const DirectPointers = 8

// Inode mirrors spec §3's 128-byte inode layout.
type Inode struct {
	Type   uint16
	Links  uint16
	Size   uint32
	Direct [DirectPointers]uint32
	Ctime  uint32
	Mtime  uint32
}

// InodeLocation returns the block number holding inode inum and its byte
// offset within that block, per spec §3's derivation.
func InodeLocation(sb *Superblock, inum uint32) (blockNo int64, offset int) {
	blockNo = int64(sb.InodeStart) + int64(inum/InodesPerBlock)
	offset = int(inum%InodesPerBlock) * InodeSize
	return
}

// ReadInode reads the containing inode block and decodes the slice at
// inum's offset into a typed Inode, per spec §4.3.
func ReadInode(dev *device.Device, sb *Superblock, inum uint32) (*Inode, error) {
	blockNo, offset := InodeLocation(sb, inum)
	buf, err := dev.ReadBlock(blockNo)
	if err != nil {
		return nil, fmt.Errorf("read inode %d: %w", inum, err)
	}
	return inodeFromBytes(buf[offset : offset+InodeSize])
}

func inodeFromBytes(b []byte) (*Inode, error) {
	if len(b) != InodeSize {
		return nil, fmt.Errorf("inode slice is %d bytes, expected %d", len(b), InodeSize)
	}
	in := &Inode{
		Type:  binary.LittleEndian.Uint16(b[0:2]),
		Links: binary.LittleEndian.Uint16(b[2:4]),
		Size:  binary.LittleEndian.Uint32(b[4:8]),
	}
	for i := 0; i < DirectPointers; i++ {
		off := 8 + i*4
		in.Direct[i] = binary.LittleEndian.Uint32(b[off : off+4])
	}
	tailOff := 8 + DirectPointers*4
	in.Ctime = binary.LittleEndian.Uint32(b[tailOff : tailOff+4])
	in.Mtime = binary.LittleEndian.Uint32(b[tailOff+4 : tailOff+8])
	return in, nil
}

// toBytes encodes the inode into its fixed 128-byte on-disk image.
func (in *Inode) toBytes() []byte {
	b := make([]byte, InodeSize)
	binary.LittleEndian.PutUint16(b[0:2], in.Type)
	binary.LittleEndian.PutUint16(b[2:4], in.Links)
	binary.LittleEndian.PutUint32(b[4:8], in.Size)
	for i := 0; i < DirectPointers; i++ {
		off := 8 + i*4
		binary.LittleEndian.PutUint32(b[off:off+4], in.Direct[i])
	}
	tailOff := 8 + DirectPointers*4
	binary.LittleEndian.PutUint32(b[tailOff:tailOff+4], in.Ctime)
	binary.LittleEndian.PutUint32(b[tailOff+4:tailOff+8], in.Mtime)
	return b
}

// WriteInodeInto copies in's 128-byte image into buf (a full inode-table
// block buffer) at inum's offset. The buffer is never written to its home
// block directly by the core — it is staged into the journal instead; see
// internal/txn.Create.
func WriteInodeInto(buf []byte, sb *Superblock, inum uint32, in *Inode) error {
	if len(buf) != device.BlockSize {
		return fmt.Errorf("inode block buffer is %d bytes, expected %d", len(buf), device.BlockSize)
	}
	_, offset := InodeLocation(sb, inum)
	copy(buf[offset:offset+InodeSize], in.toBytes())
	return nil
}
