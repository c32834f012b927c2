package journal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// testDevice builds a device.Device backed by a temp file with a clean
// journal region starting at block 1 (block 0 left unused, matching
// typical superblock placement) and totalBlocks total blocks.
func testDevice(t *testing.T, totalBlocks int64) (*device.Device, *vsfs.Superblock) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.img")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create: %v", err)
	}
	if err := f.Truncate(totalBlocks * device.BlockSize); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	dev, err := device.Open(f)
	if err != nil {
		t.Fatalf("device.Open: %v", err)
	}
	t.Cleanup(func() { dev.Close() })

	sb := &vsfs.Superblock{JournalBlock: 1}
	if err := Clear(dev, sb); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	return dev, sb
}

func TestScanCleanJournal(t *testing.T) {
	dev, sb := testDevice(t, 1+RegionBlocks+1)
	result, err := Scan(dev, sb)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !result.Clean {
		t.Fatalf("expected a freshly cleared journal to scan as clean")
	}
}

func TestBeginAppendCommitScanReplay(t *testing.T) {
	dev, sb := testDevice(t, 16)

	image1 := make([]byte, device.BlockSize)
	image1[0] = 0xAB
	image2 := make([]byte, device.BlockSize)
	image2[1] = 0xCD

	j, err := Begin(dev, sb)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := j.AppendData(10, image1); err != nil {
		t.Fatalf("AppendData: %v", err)
	}
	if err := j.AppendData(11, image2); err != nil {
		t.Fatalf("AppendData: %v", err)
	}
	if err := j.AppendCommit(); err != nil {
		t.Fatalf("AppendCommit: %v", err)
	}

	result, err := Scan(dev, sb)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Clean || result.Incomplete {
		t.Fatalf("expected a committed transaction, got %+v", result)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 data records, got %d", len(result.Records))
	}
	if result.Records[0].BlockNo != 10 || result.Records[1].BlockNo != 11 {
		t.Fatalf("unexpected block order: %+v", result.Records)
	}

	if err := Replay(dev, result.Records); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	got, err := dev.ReadBlock(10)
	if err != nil {
		t.Fatalf("ReadBlock(10): %v", err)
	}
	if got[0] != 0xAB {
		t.Fatalf("replay did not apply block 10's image")
	}

	if err := Clear(dev, sb); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	result, err = Scan(dev, sb)
	if err != nil {
		t.Fatalf("Scan after clear: %v", err)
	}
	if !result.Clean {
		t.Fatalf("expected clean journal after Clear")
	}
}

func TestAppendDataWithoutCommitIsIncomplete(t *testing.T) {
	dev, sb := testDevice(t, 1+RegionBlocks+1)
	j, err := Begin(dev, sb)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := j.AppendData(5, make([]byte, device.BlockSize)); err != nil {
		t.Fatalf("AppendData: %v", err)
	}
	result, err := Scan(dev, sb)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !result.Incomplete {
		t.Fatalf("expected an incomplete transaction, got %+v", result)
	}
}

func TestReplayIsIdempotent(t *testing.T) {
	dev, sb := testDevice(t, 1+RegionBlocks+1)
	j, err := Begin(dev, sb)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	image := make([]byte, device.BlockSize)
	image[0] = 0x7F
	if err := j.AppendData(5, image); err != nil {
		t.Fatalf("AppendData: %v", err)
	}
	if err := j.AppendCommit(); err != nil {
		t.Fatalf("AppendCommit: %v", err)
	}
	result, err := Scan(dev, sb)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := Replay(dev, result.Records); err != nil {
		t.Fatalf("first Replay: %v", err)
	}
	first, _ := dev.ReadBlock(5)
	if err := Replay(dev, result.Records); err != nil {
		t.Fatalf("second Replay: %v", err)
	}
	second, _ := dev.ReadBlock(5)
	if string(first) != string(second) {
		t.Fatalf("replaying twice produced different bytes")
	}
}

func TestBeginRejectsBadMagic(t *testing.T) {
	dev, sb := testDevice(t, 1+RegionBlocks+1)
	corrupt := make([]byte, device.BlockSize)
	corrupt[0] = 0xFF
	if err := dev.WriteBlock(int64(sb.JournalBlock), corrupt); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if _, err := Begin(dev, sb); !errors.Is(err, vsfserr.ErrCorruptJournal) {
		t.Fatalf("expected ErrCorruptJournal, got %v", err)
	}
}

func TestAppendDataFailsWhenJournalFull(t *testing.T) {
	dev, sb := testDevice(t, 1+RegionBlocks+1)
	j, err := Begin(dev, sb)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	image := make([]byte, device.BlockSize)
	recordsThatFit := (RegionSize - HeaderSize) / DataRecordSize
	for i := 0; i < recordsThatFit; i++ {
		if err := j.AppendData(uint32(i), image); err != nil {
			t.Fatalf("AppendData %d: %v", i, err)
		}
	}
	if err := j.AppendData(999, image); !errors.Is(err, vsfserr.ErrJournalFull) {
		t.Fatalf("expected ErrJournalFull once the region is full, got %v", err)
	}
}
