package errors

import "github.com/pkg/errors"

var (
	// intake errors
	ErrIntakeUnavailable = errors.New("mail source unavailable after retry ceiling")
	ErrMailboxNotFound   = errors.New("mailbox folder not found")

	// classification errors
	ErrLedgerConflict = errors.New("ledger entry already exists")
)

// IsLedgerConflict reports whether err is (or wraps) a duplicate ledger insert
func IsLedgerConflict(err error) bool {
	return errors.Is(err, ErrLedgerConflict)
}

// IsIntakeUnavailable reports whether err is (or wraps) a run-aborting intake failure
func IsIntakeUnavailable(err error) bool {
	return errors.Is(err, ErrIntakeUnavailable)
}
