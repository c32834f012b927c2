package txn

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/trustelem/vsfsjournal/internal/device"
	"github.com/trustelem/vsfsjournal/internal/journal"
	"github.com/trustelem/vsfsjournal/internal/vsfs"
	"github.com/trustelem/vsfsjournal/internal/vsfserr"
)

// InstallOutcome classifies a successful Install call, per spec §4.6.
type InstallOutcome int

const (
	// InstallEmpty means the journal was clean: a no-op.
	InstallEmpty InstallOutcome = iota
	// InstallApplied means a committed transaction was replayed and cleared.
	InstallApplied
)

// Install scans the journal, replays a committed transaction into home
// blocks, then clears the journal. It returns (InstallEmpty, nil) if the
// journal was already clean, and a non-nil error wrapping
// ErrIncompleteTransaction if DATA records are present without a
// trailing COMMIT — in which case the journal is left untouched so a
// human can inspect it.
func Install(dev *device.Device, sb *vsfs.Superblock) (InstallOutcome, error) {
	result, err := journal.Scan(dev, sb)
	if err != nil {
		return 0, err
	}

	if result.Clean {
		logrus.Debug("install: journal is clean, nothing to do")
		return InstallEmpty, nil
	}

	if result.Incomplete {
		return 0, fmt.Errorf("%w: %d data record(s) with no trailing commit", vsfserr.ErrIncompleteTransaction, len(result.Records))
	}

	if err := journal.Replay(dev, result.Records); err != nil {
		return 0, fmt.Errorf("install: %w", err)
	}
	if err := journal.Clear(dev, sb); err != nil {
		return 0, fmt.Errorf("install: clear journal: %w", err)
	}

	logrus.WithField("records", len(result.Records)).Info("install: transaction applied and journal cleared")
	return InstallApplied, nil
}
