package interfaces

import (
	"context"
	"time"

	"github.com/docflowhq/docflow/internal/models"
)

// LedgerRepository is the durable idempotency ledger, keyed on attachment
// fingerprint: identical content is a duplicate no matter which message
// carried it. The check-then-mark sequence is safe against concurrent workers
// because MarkProcessed is an atomic check-and-insert at the database level
type LedgerRepository interface {
	HasFingerprint(ctx context.Context, fingerprint string) (bool, error)
	// MarkProcessed fails with errors.ErrLedgerConflict when the fingerprint
	// is already present
	MarkProcessed(ctx context.Context, messageIdentity, fingerprint string, processedAt time.Time) error
}

type ClassificationResultRepository interface {
	Create(ctx context.Context, result *models.ClassificationResult) error
	ListByRunDate(ctx context.Context, runDate string) ([]*models.ClassificationResult, error)
}

type ValidationRecordRepository interface {
	CreateAll(ctx context.Context, records []*models.ValidationRecord) error
	ListByRunDate(ctx context.Context, runDate string) ([]*models.ValidationRecord, error)
	DeleteByRunDate(ctx context.Context, runDate string) error
}

type RunReportRepository interface {
	GetByRunDate(ctx context.Context, runDate string) (*models.RunReport, error)
	Save(ctx context.Context, report *models.RunReport) error
}
