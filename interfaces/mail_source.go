package interfaces

import (
	"context"

	"github.com/docflowhq/docflow/internal/models"
)

// MailSource yields candidate report messages and carries the acknowledgment
// boundary back to the sender. Fetching a message does not confirm receipt;
// Confirm is issued by the pipeline only after successful classification
type MailSource interface {
	Connect(ctx context.Context) error
	// FetchMessages returns up to limit messages currently in the inbox,
	// with attachments fully loaded. It does not filter by subject; the
	// intake layer owns the subject filter
	FetchMessages(ctx context.Context, limit int) ([]*models.InboundMessage, error)
	// Confirm acknowledges an accepted message: reply to the sender and file
	// the message under the processed/valid folder for the run date.
	// Re-issuance after a crash is tolerated by the receiving party
	Confirm(ctx context.Context, msg *models.InboundMessage, runDate string) error
	// NotifyRejected informs the sender that a message produced no accepted
	// documents and files it under the processed/rejected folder. Not an
	// acknowledgment in the ledger sense
	NotifyRejected(ctx context.Context, msg *models.InboundMessage, runDate string) error
	Close() error
}
