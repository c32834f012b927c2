package vsfs

import (
	"testing"

	"github.com/trustelem/vsfsjournal/internal/device"
)

func emptyDirBlock() []byte {
	return make([]byte, device.BlockSize)
}

func TestFindFreeDirentSlotOnEmptyBlock(t *testing.T) {
	entries, err := ReadDirents(emptyDirBlock())
	if err != nil {
		t.Fatalf("ReadDirents: %v", err)
	}
	if slot := FindFreeDirentSlot(entries); slot != 0 {
		t.Fatalf("expected free slot 0 on an empty directory block, got %d", slot)
	}
}

func TestWriteDirentIntoThenFindByName(t *testing.T) {
	block := emptyDirBlock()
	if err := WriteDirentInto(block, 0, 1, "hello"); err != nil {
		t.Fatalf("WriteDirentInto: %v", err)
	}
	entries, err := ReadDirents(block)
	if err != nil {
		t.Fatalf("ReadDirents: %v", err)
	}
	if slot := FindDirentByName(entries, "hello"); slot != 0 {
		t.Fatalf("expected to find %q at slot 0, got %d", "hello", slot)
	}
	if slot := FindDirentByName(entries, "nope"); slot != -1 {
		t.Fatalf("expected not to find %q, got slot %d", "nope", slot)
	}
	if slot := FindFreeDirentSlot(entries); slot != 1 {
		t.Fatalf("expected next free slot 1, got %d", slot)
	}
}

// TestFindDirentByNamePrefixDoesNotCollide exercises spec §9's stricter
// rule: a short name must not match as a prefix of a longer stored name
// (the bytes beyond the search name must be NUL).
func TestFindDirentByNamePrefixDoesNotCollide(t *testing.T) {
	block := emptyDirBlock()
	if err := WriteDirentInto(block, 0, 1, "hello_world"); err != nil {
		t.Fatalf("WriteDirentInto: %v", err)
	}
	entries, err := ReadDirents(block)
	if err != nil {
		t.Fatalf("ReadDirents: %v", err)
	}
	if slot := FindDirentByName(entries, "hello"); slot != -1 {
		t.Fatalf("expected %q not to match prefix of %q, got slot %d", "hello", "hello_world", slot)
	}
}

func TestNameStringStopsAtNUL(t *testing.T) {
	block := emptyDirBlock()
	if err := WriteDirentInto(block, 0, 1, "abc"); err != nil {
		t.Fatalf("WriteDirentInto: %v", err)
	}
	entries, err := ReadDirents(block)
	if err != nil {
		t.Fatalf("ReadDirents: %v", err)
	}
	if got := entries[0].NameString(); got != "abc" {
		t.Fatalf("expected name %q, got %q", "abc", got)
	}
}

func TestDescribeRootSkipsEmptySlots(t *testing.T) {
	block := emptyDirBlock()
	if err := WriteDirentInto(block, 2, 7, "world"); err != nil {
		t.Fatalf("WriteDirentInto: %v", err)
	}
	nonzero, err := DescribeRoot(block)
	if err != nil {
		t.Fatalf("DescribeRoot: %v", err)
	}
	if len(nonzero) != 1 {
		t.Fatalf("expected exactly 1 nonzero entry, got %d", len(nonzero))
	}
	if nonzero[0].Inode != 7 || nonzero[0].NameString() != "world" {
		t.Fatalf("unexpected entry: %+v", nonzero[0])
	}
}
