package vsfs

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/trustelem/vsfsjournal/internal/device"
)

// DirentSize is the on-disk size of one directory entry, in bytes.
const DirentSize = 32

// NameLen is the width of a dirent's name field, NUL-terminated when
// shorter than that.
const NameLen = 28

// DirentsPerBlock is the number of fixed-size directory entries that fit
// in one block.
const DirentsPerBlock = device.BlockSize / DirentSize

// Dirent is a single directory entry: inode == 0 marks an empty slot.
type Dirent struct {
	Inode uint32
	Name  [NameLen]byte
}

// direntFromBytes decodes one DirentSize-byte slice, grounded on the
// teacher's directoryEntryFromBytes decode-in-place idiom
// (filesystem/ext4/directoryentry.go), adapted to vsfsjournal's
// fixed-width (rather than variable-length) dirent.
func direntFromBytes(b []byte) (*Dirent, error) {
	if len(b) != DirentSize {
		return nil, fmt.Errorf("dirent slice is %d bytes, expected %d", len(b), DirentSize)
	}
	d := &Dirent{Inode: binary.LittleEndian.Uint32(b[0:4])}
	copy(d.Name[:], b[4:4+NameLen])
	return d, nil
}

func (d *Dirent) toBytes() []byte {
	b := make([]byte, DirentSize)
	binary.LittleEndian.PutUint32(b[0:4], d.Inode)
	copy(b[4:4+NameLen], d.Name[:])
	return b
}

// NameString returns the dirent's name up to its first NUL byte.
func (d *Dirent) NameString() string {
	n := bytes.IndexByte(d.Name[:], 0)
	if n < 0 {
		n = NameLen
	}
	return string(d.Name[:n])
}

// packName pads/NUL-terminates name into a NameLen-byte field. Callers
// must have already validated len(name) < NameLen.
func packName(name string) [NameLen]byte {
	var out [NameLen]byte
	copy(out[:], name)
	return out
}

// ReadDirents decodes all DirentsPerBlock entries of a directory block.
func ReadDirents(block []byte) ([]*Dirent, error) {
	if len(block) != device.BlockSize {
		return nil, fmt.Errorf("directory block is %d bytes, expected %d", len(block), device.BlockSize)
	}
	entries := make([]*Dirent, DirentsPerBlock)
	for i := 0; i < DirentsPerBlock; i++ {
		off := i * DirentSize
		d, err := direntFromBytes(block[off : off+DirentSize])
		if err != nil {
			return nil, fmt.Errorf("dirent %d: %w", i, err)
		}
		entries[i] = d
	}
	return entries, nil
}

// FindFreeDirentSlot returns the index of the first slot with Inode == 0,
// or -1 if the directory block is full.
func FindFreeDirentSlot(entries []*Dirent) int {
	for i, d := range entries {
		if d.Inode == 0 {
			return i
		}
	}
	return -1
}

// FindDirentByName returns the index of the first nonzero slot whose name
// equals name under the stricter, NUL-bounded comparison spec §4.3 and §9
// mandate (not strncmp's looser 28-byte prefix match): the stored name's
// bytes beyond len(name) must all be NUL.
func FindDirentByName(entries []*Dirent, name string) int {
	nb := []byte(name)
	for i, d := range entries {
		if d.Inode == 0 {
			continue
		}
		if len(nb) > NameLen {
			continue
		}
		if !bytes.Equal(d.Name[:len(nb)], nb) {
			continue
		}
		rest := d.Name[len(nb):]
		allZero := true
		for _, c := range rest {
			if c != 0 {
				allZero = false
				break
			}
		}
		if allZero {
			return i
		}
	}
	return -1
}

// WriteDirentInto writes a single dirent's bytes into a directory block
// buffer at the given slot. As with WriteInodeInto, the buffer is staged
// into the journal, never written directly to its home block.
func WriteDirentInto(buf []byte, slot int, inum uint32, name string) error {
	if len(buf) != device.BlockSize {
		return fmt.Errorf("directory block buffer is %d bytes, expected %d", len(buf), device.BlockSize)
	}
	if slot < 0 || slot >= DirentsPerBlock {
		return fmt.Errorf("dirent slot %d out of range [0,%d)", slot, DirentsPerBlock)
	}
	d := &Dirent{Inode: inum, Name: packName(name)}
	off := slot * DirentSize
	copy(buf[off:off+DirentSize], d.toBytes())
	return nil
}

// DescribeRoot lists the nonzero entries of the root directory block, for
// the `info` command. Supplemented from original_source's do_install/info
// listing (journal_ai.c), which the spec.md distillation dropped but which
// exercises the same metadata views, read-only.
func DescribeRoot(block []byte) ([]*Dirent, error) {
	entries, err := ReadDirents(block)
	if err != nil {
		return nil, err
	}
	var nonzero []*Dirent
	for _, d := range entries {
		if d.Inode != 0 {
			nonzero = append(nonzero, d)
		}
	}
	return nonzero, nil
}
