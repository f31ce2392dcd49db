package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/errors"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) interfaces.LedgerRepository {
	return &ledgerRepository{db: db}
}

// HasFingerprint checks whether an attachment with this content was ever
// handled, across all historical runs and regardless of the carrying message
func (r *ledgerRepository) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRepository.HasFingerprint")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFingerprint(span, fingerprint)

	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("attachment_fingerprint = ?", fingerprint).
		Count(&count)

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, fmt.Errorf("failed to check ledger: %w", result.Error)
	}

	return count > 0, nil
}

// MarkProcessed inserts a ledger entry atomically. The unique index on the
// fingerprint makes the check-and-insert race-free: a concurrent insert of
// the same content leaves RowsAffected at zero, which surfaces as
// ErrLedgerConflict
func (r *ledgerRepository) MarkProcessed(ctx context.Context, messageIdentity, fingerprint string, processedAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ledgerRepository.MarkProcessed")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagFingerprint(span, fingerprint)

	entry := models.LedgerEntry{
		MessageIdentity:       messageIdentity,
		AttachmentFingerprint: fingerprint,
		ProcessedAt:           processedAt,
		Status:                "processed",
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attachment_fingerprint"}},
			DoNothing: true,
		}).
		Create(&entry)

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to mark processed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tracing.TraceErr(span, errors.ErrLedgerConflict)
		return errors.ErrLedgerConflict
	}

	return nil
}
