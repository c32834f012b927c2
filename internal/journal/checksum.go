package journal

import "hash/crc32"

// crc32cTab is the Castagnoli polynomial table, grounded on the teacher's
// own ext4 metadata-checksum helper (filesystem/ext4/crc32c.go). Unlike
// ext4, vsfsjournal does not persist this checksum on disk — it backs a
// diagnostic log field only, so a mismatch can never itself produce
// ErrCorruptJournal; the COMMIT record remains the sole transaction
// boundary spec.md defines.
var crc32cTab = crc32.MakeTable(crc32.Castagnoli)

// transactionChecksum folds the CRC32C of every DATA record's payload
// into a single value, for the logrus "txn_checksum" field emitted at
// commit and at replay.
func transactionChecksum(records []DataRecord) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, rec := range records {
		crc = crc32.Update(crc, crc32cTab, rec.Data)
	}
	return ^crc
}
