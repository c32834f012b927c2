package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/journal"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
)

func TestPlanRejectsTooFewBlocks(t *testing.T) {
	if _, err := Plan(Params{TotalBlocks: 1, InodeCount: 32}); err == nil {
		t.Fatalf("expected an error when TotalBlocks is too small for the fixed layout")
	}
}

func TestCreateWritesConformingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsfs.img")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create: %v", err)
	}
	const totalBlocks = 64
	if err := f.Truncate(totalBlocks * device.BlockSize); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	dev, err := device.Open(f)
	if err != nil {
		t.Fatalf("device.Open: %v", err)
	}
	defer dev.Close()

	sb, err := Create(dev, Params{TotalBlocks: totalBlocks, InodeCount: 32})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sb.Magic != vsfs.Magic {
		t.Fatalf("expected magic 0x%X, got 0x%X", vsfs.Magic, sb.Magic)
	}

	// Re-reading the superblock from disk must match what Create returned.
	got, err := vsfs.ReadSuperblock(dev)
	if err != nil {
		t.Fatalf("ReadSuperblock: %v", err)
	}
	if *got != *sb {
		t.Fatalf("on-disk superblock mismatch: got %+v want %+v", got, sb)
	}

	root, err := vsfs.ReadInode(dev, sb, 0)
	if err != nil {
		t.Fatalf("ReadInode(0): %v", err)
	}
	if root.Type != vsfs.TypeDir {
		t.Fatalf("expected root inode type %d, got %d", vsfs.TypeDir, root.Type)
	}
	if root.Direct[0] != sb.DataStart {
		t.Fatalf("expected root direct[0] == data_start (%d), got %d", sb.DataStart, root.Direct[0])
	}

	result, err := journal.Scan(dev, sb)
	if err != nil {
		t.Fatalf("journal.Scan: %v", err)
	}
	if !result.Clean {
		t.Fatalf("expected a freshly formatted image to have a clean journal")
	}

	dirBlock, err := dev.ReadBlock(int64(sb.DataStart))
	if err != nil {
		t.Fatalf("ReadBlock(data_start): %v", err)
	}
	entries, err := vsfs.DescribeRoot(dirBlock)
	if err != nil {
		t.Fatalf("DescribeRoot: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected an empty root directory on a freshly formatted image, got %d entries", len(entries))
	}
}
