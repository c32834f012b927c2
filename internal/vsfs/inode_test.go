package vsfs

import (
	"testing"

	"github.com/trustelem/vsfsjournal/internal/device"
)

func testSuperblock() *Superblock {
	return &Superblock{
		Magic:        Magic,
		BlockSize:    device.BlockSize,
		TotalBlocks:  64,
		InodeCount:   32,
		JournalBlock: 3,
		InodeBitmap:  1,
		DataBitmap:   2,
		InodeStart:   7,
		DataStart:    8,
	}
}

func TestInodeLocation(t *testing.T) {
	sb := testSuperblock()
	blockNo, offset := InodeLocation(sb, 0)
	if blockNo != int64(sb.InodeStart) || offset != 0 {
		t.Fatalf("inode 0: got block %d offset %d", blockNo, offset)
	}
	blockNo, offset = InodeLocation(sb, 33)
	if blockNo != int64(sb.InodeStart)+1 || offset != InodeSize {
		t.Fatalf("inode 33: got block %d offset %d", blockNo, offset)
	}
}

func TestWriteInodeIntoThenDecode(t *testing.T) {
	sb := testSuperblock()
	buf := make([]byte, device.BlockSize)
	in := &Inode{Type: TypeRegular, Links: 1, Size: 0, Ctime: 111, Mtime: 222}
	in.Direct[0] = 99
	if err := WriteInodeInto(buf, sb, 1, in); err != nil {
		t.Fatalf("WriteInodeInto: %v", err)
	}
	got, err := inodeFromBytes(buf[InodeSize : 2*InodeSize])
	if err != nil {
		t.Fatalf("inodeFromBytes: %v", err)
	}
	if got.Type != TypeRegular || got.Links != 1 || got.Direct[0] != 99 || got.Ctime != 111 || got.Mtime != 222 {
		t.Fatalf("unexpected decoded inode: %+v", got)
	}
}

func TestSuperblockToBytesFromBytesRoundTrip(t *testing.T) {
	sb := testSuperblock()
	b := sb.ToBytes()
	got, err := superblockFromBytes(b)
	if err != nil {
		t.Fatalf("superblockFromBytes: %v", err)
	}
	if *got != *sb {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, sb)
	}
}

func TestSuperblockFromBytesRejectsBadMagic(t *testing.T) {
	sb := testSuperblock()
	b := sb.ToBytes()
	b[0] ^= 0xFF
	if _, err := superblockFromBytes(b); err == nil {
		t.Fatalf("expected an error for a corrupted magic")
	}
}
