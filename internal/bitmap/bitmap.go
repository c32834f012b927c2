// Package bitmap implements the bitmap block view of spec §4.2: a dense
// 4096-byte block of bit slots, bit i in byte i/8 at mask 1<<(i%8), with
// bit 1 meaning allocated. The in-memory bit arithmetic is delegated to
// github.com/bits-and-blooms/bitset (the same library the teacher's ext4
// bitmaps are built on); this package only owns the on-disk byte layout,
// since bitset's own MarshalBinary format (an 8-byte length header
// followed by big-endian 64-bit words) does not match the raw
// LSB-per-byte packing the on-disk format requires.
package bitmap

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Size is the number of bit slots in one bitmap block (4096 bytes * 8).
const Size = 4096 * 8

// Bitmap is the in-memory, mutable view of one on-disk bitmap block.
type Bitmap struct {
	bs *bitset.BitSet
}

// New returns an all-zero bitmap of Size bits.
func New() *Bitmap {
	return &Bitmap{bs: bitset.New(Size)}
}

// FromBytes unpacks a raw 4096-byte bitmap block into a Bitmap.
func FromBytes(b []byte) (*Bitmap, error) {
	if len(b) != Size/8 {
		return nil, fmt.Errorf("bitmap block must be %d bytes, got %d", Size/8, len(b))
	}
	bs := bitset.New(Size)
	for i := 0; i < Size; i++ {
		if b[i/8]&(1<<uint(i%8)) != 0 {
			bs.Set(uint(i))
		}
	}
	return &Bitmap{bs: bs}, nil
}

// ToBytes packs the bitmap back into a raw 4096-byte block image.
func (bm *Bitmap) ToBytes() []byte {
	out := make([]byte, Size/8)
	for i := 0; i < Size; i++ {
		if bm.bs.Test(uint(i)) {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// Test reports whether bit i is set.
func (bm *Bitmap) Test(i uint) bool {
	return bm.bs.Test(i)
}

// Set marks bit i as allocated.
func (bm *Bitmap) Set(i uint) {
	bm.bs.Set(i)
}

// Clear marks bit i as free.
func (bm *Bitmap) Clear(i uint) {
	bm.bs.Clear(i)
}

// FindFirstZero returns the smallest index in [0, limit) whose bit is
// zero, and true, or false if every bit in that range is set. Ties are
// always broken toward the lowest index, keeping allocation deterministic.
func (bm *Bitmap) FindFirstZero(limit uint) (uint, bool) {
	idx, ok := bm.bs.NextClear(0)
	if !ok || idx >= limit {
		return 0, false
	}
	return idx, true
}

// Clone returns an independent copy, used by callers that need to stage a
// modified bitmap image without mutating the one read from disk.
func (bm *Bitmap) Clone() *Bitmap {
	return &Bitmap{bs: bm.bs.Clone()}
}
