package journal

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// Journal is a handle on one in-flight transaction being staged into the
// on-disk journal region. Begin returns one; AppendData/AppendCommit
// mutate it and persist after every call, matching the teacher's
// read-modify-write-immediately idiom for on-disk structures.
type Journal struct {
	dev    *device.Device
	sb     *vsfs.Superblock
	header Header
	region []byte
}

// ScanResult is the outcome of Scan. At most one of Clean and Incomplete
// is set; when neither is, the journal holds a committed transaction and
// Records are its DATA records in append order. An Incomplete result also
// carries the DATA records found before nbytes_used.
type ScanResult struct {
	Clean      bool
	Incomplete bool
	Records    []DataRecord
}

func regionStartBlock(sb *vsfs.Superblock) int64 {
	return int64(sb.JournalBlock)
}

func readRegion(dev *device.Device, sb *vsfs.Superblock) ([]byte, error) {
	start := regionStartBlock(sb)
	region := make([]byte, 0, RegionSize)
	for i := int64(0); i < RegionBlocks; i++ {
		blk, err := dev.ReadBlock(start + i)
		if err != nil {
			return nil, fmt.Errorf("read journal region block %d: %w", i, err)
		}
		region = append(region, blk...)
	}
	return region, nil
}

func writeRegion(dev *device.Device, sb *vsfs.Superblock, region []byte) error {
	if len(region) != RegionSize {
		return fmt.Errorf("journal region buffer is %d bytes, expected %d", len(region), RegionSize)
	}
	start := regionStartBlock(sb)
	for i := int64(0); i < RegionBlocks; i++ {
		off := i * device.BlockSize
		if err := dev.WriteBlock(start+i, region[off:off+device.BlockSize]); err != nil {
			return fmt.Errorf("write journal region block %d: %w", i, err)
		}
	}
	return nil
}

// Begin reads the journal header and resets it, in memory, to an empty
// transaction. Per spec §4.4, a new transaction always overwrites any
// prior staged state; this is safe only because install is assumed to run
// before the next create — see spec §9's "reset journal" open question.
// If a previously committed-but-uninstalled transaction is about to be
// discarded, that fact is logged (not refused): the behavior itself is
// unchanged from spec.md's contract.
func Begin(dev *device.Device, sb *vsfs.Superblock) (*Journal, error) {
	region, err := readRegion(dev, sb)
	if err != nil {
		return nil, err
	}
	h, err := headerFromBytes(region)
	if err != nil {
		return nil, err
	}
	if prev, err := scanHeader(region, h); err == nil && !prev.Clean && !prev.Incomplete && len(prev.Records) > 0 {
		logrus.WithFields(logrus.Fields{
			"discarded_records": len(prev.Records),
		}).Warn("create: discarding a committed-but-uninstalled transaction")
	}
	h.NBytesUsed = HeaderSize
	h.toBytes(region[0:HeaderSize])
	return &Journal{dev: dev, sb: sb, header: h, region: region}, nil
}

// AppendData stages a DATA record for block_no carrying image as its
// full replacement content. Fails with ErrJournalFull if the region
// would overflow; this must be checked before any bytes are written for
// this record, so a rejected append never corrupts the journal.
func (j *Journal) AppendData(blockNo uint32, image []byte) error {
	if j.header.NBytesUsed+DataRecordSize > RegionSize {
		return fmt.Errorf("%w: appending data record for block %d would exceed %d-byte journal region", vsfserr.ErrJournalFull, blockNo, RegionSize)
	}
	rec, err := encodeDataRecord(blockNo, image)
	if err != nil {
		return err
	}
	copy(j.region[j.header.NBytesUsed:], rec)
	j.header.NBytesUsed += DataRecordSize
	j.header.toBytes(j.region[0:HeaderSize])
	if err := writeRegion(j.dev, j.sb, j.region); err != nil {
		return err
	}
	return nil
}

// AppendCommit writes the COMMIT record that marks the staged DATA
// records as durable and eligible for replay. Writing a valid COMMIT is
// the linearization point of the transaction.
func (j *Journal) AppendCommit() error {
	if j.header.NBytesUsed+CommitRecordSize > RegionSize {
		return fmt.Errorf("%w: appending commit record would exceed %d-byte journal region", vsfserr.ErrJournalFull, RegionSize)
	}
	rec := encodeCommitRecord()
	copy(j.region[j.header.NBytesUsed:], rec)
	j.header.NBytesUsed += CommitRecordSize
	j.header.toBytes(j.region[0:HeaderSize])
	if err := writeRegion(j.dev, j.sb, j.region); err != nil {
		return err
	}
	if staged, err := scanHeader(j.region, j.header); err == nil {
		logrus.WithFields(logrus.Fields{
			"records":      len(staged.Records),
			"txn_checksum": fmt.Sprintf("%08x", transactionChecksum(staged.Records)),
		}).Debug("journal: transaction committed")
	}
	return nil
}

// scanHeader walks the records in region[HeaderSize:h.NBytesUsed],
// classifying the transaction. An unknown record type aborts with
// ErrCorruptJournal.
func scanHeader(region []byte, h Header) (ScanResult, error) {
	if h.Clean() {
		return ScanResult{Clean: true}, nil
	}
	offset := uint32(HeaderSize)
	var records []DataRecord
	for offset < h.NBytesUsed {
		if offset+recHeaderSize > uint32(len(region)) {
			return ScanResult{}, fmt.Errorf("%w: truncated record header at offset %d", vsfserr.ErrCorruptJournal, offset)
		}
		typ, size := readRecHeader(region[offset:])
		switch typ {
		case RecTypeData:
			if offset+uint32(size) > uint32(len(region)) || size != DataRecordSize {
				return ScanResult{}, fmt.Errorf("%w: malformed data record at offset %d", vsfserr.ErrCorruptJournal, offset)
			}
			rec, err := decodeDataRecord(region[offset : offset+uint32(size)])
			if err != nil {
				return ScanResult{}, err
			}
			records = append(records, rec)
			offset += uint32(size)
		case RecTypeCommit:
			if size != CommitRecordSize {
				return ScanResult{}, fmt.Errorf("%w: malformed commit record at offset %d", vsfserr.ErrCorruptJournal, offset)
			}
			// A committed transaction: records collected so far are it.
			return ScanResult{Records: records}, nil
		default:
			return ScanResult{}, fmt.Errorf("%w: unknown record type %d at offset %d", vsfserr.ErrCorruptJournal, typ, offset)
		}
	}
	// Walked to nbytes_used without finding a COMMIT: DATA without commit.
	return ScanResult{Incomplete: true, Records: records}, nil
}

// Scan reads the journal region and classifies it as clean, incomplete
// (DATA without a trailing COMMIT), or committed (returning the DATA
// records in append order).
func Scan(dev *device.Device, sb *vsfs.Superblock) (ScanResult, error) {
	region, err := readRegion(dev, sb)
	if err != nil {
		return ScanResult{}, err
	}
	h, err := headerFromBytes(region)
	if err != nil {
		return ScanResult{}, err
	}
	return scanHeader(region, h)
}

// Replay writes each DATA record's image to its home block, in the
// order scan returned them. Replay is idempotent: replaying the same
// committed transaction twice yields the same on-disk state, since every
// record carries a full-block image rather than a delta.
func Replay(dev *device.Device, records []DataRecord) error {
	logrus.WithFields(logrus.Fields{
		"records":      len(records),
		"txn_checksum": fmt.Sprintf("%08x", transactionChecksum(records)),
	}).Debug("journal: replaying transaction")
	for _, rec := range records {
		if err := dev.WriteBlock(int64(rec.BlockNo), rec.Data); err != nil {
			return fmt.Errorf("replay block %d: %w", rec.BlockNo, err)
		}
	}
	return nil
}

// Clear overwrites the journal region's record bytes with zero and resets
// nbytes_used to HeaderSize, the checkpoint step of install.
func Clear(dev *device.Device, sb *vsfs.Superblock) error {
	region := make([]byte, RegionSize)
	h := Header{Magic: Magic, NBytesUsed: HeaderSize}
	h.toBytes(region[0:HeaderSize])
	return writeRegion(dev, sb, region)
}
