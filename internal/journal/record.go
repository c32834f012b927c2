package journal

import (
	"encoding/binary"
	"fmt"

	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// Record type tags, per spec §3.
const (
	RecTypeData   uint16 = 1
	RecTypeCommit uint16 = 2
)

// recHeaderSize is the 4-byte {type, size} header every record carries.
const recHeaderSize = 4

// DataRecordSize is a DATA record's total size: header + block_no + one
// full block image (4 + 4 + 4096 = 4104 bytes).
const DataRecordSize = recHeaderSize + 4 + device.BlockSize

// CommitRecordSize is a COMMIT record's total size: header only.
const CommitRecordSize = recHeaderSize

// DataRecord is a decoded DATA record: a destination block number and the
// full replacement image for that block.
type DataRecord struct {
	BlockNo uint32
	Data    []byte
}

func readRecHeader(b []byte) (typ, size uint16) {
	return binary.LittleEndian.Uint16(b[0:2]), binary.LittleEndian.Uint16(b[2:4])
}

func writeRecHeader(b []byte, typ, size uint16) {
	binary.LittleEndian.PutUint16(b[0:2], typ)
	binary.LittleEndian.PutUint16(b[2:4], size)
}

func encodeDataRecord(blockNo uint32, image []byte) ([]byte, error) {
	if len(image) != device.BlockSize {
		return nil, fmt.Errorf("data record image is %d bytes, expected %d", len(image), device.BlockSize)
	}
	b := make([]byte, DataRecordSize)
	writeRecHeader(b, RecTypeData, uint16(DataRecordSize))
	binary.LittleEndian.PutUint32(b[recHeaderSize:recHeaderSize+4], blockNo)
	copy(b[recHeaderSize+4:], image)
	return b, nil
}

func decodeDataRecord(b []byte) (DataRecord, error) {
	if len(b) != DataRecordSize {
		return DataRecord{}, fmt.Errorf("%w: data record slice is %d bytes, expected %d", vsfserr.ErrCorruptJournal, len(b), DataRecordSize)
	}
	blockNo := binary.LittleEndian.Uint32(b[recHeaderSize : recHeaderSize+4])
	data := make([]byte, device.BlockSize)
	copy(data, b[recHeaderSize+4:])
	return DataRecord{BlockNo: blockNo, Data: data}, nil
}

func encodeCommitRecord() []byte {
	b := make([]byte, CommitRecordSize)
	writeRecHeader(b, RecTypeCommit, uint16(CommitRecordSize))
	return b
}
