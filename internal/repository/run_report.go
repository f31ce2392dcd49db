package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
)

type runReportRepository struct {
	db *gorm.DB
}

func NewRunReportRepository(db *gorm.DB) interfaces.RunReportRepository {
	return &runReportRepository{db: db}
}

func (r *runReportRepository) GetByRunDate(ctx context.Context, runDate string) (*models.RunReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runReportRepository.GetByRunDate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagRunDate(span, runDate)

	var report models.RunReport
	result := r.db.WithContext(ctx).
		Where("run_date = ?", runDate).
		First(&report)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil // no report for this date yet
		}
		tracing.TraceErr(span, result.Error)
		return nil, fmt.Errorf("failed to get run report: %w", result.Error)
	}

	return &report, nil
}

// Save upserts the run report for its run date
func (r *runReportRepository) Save(ctx context.Context, report *models.RunReport) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "runReportRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagRunDate(span, report.RunDate)

	report.UpdatedAt = time.Now()

	// Try to update first
	result := r.db.WithContext(ctx).
		Model(&models.RunReport{}).
		Where("run_date = ?", report.RunDate).
		Updates(map[string]interface{}{
			"batch_id":             report.BatchID,
			"status":               report.Status,
			"messages_received":    report.MessagesReceived,
			"attachments_accepted": report.AttachmentsAccepted,
			"attachments_rejected": report.AttachmentsRejected,
			"candidates_found":     report.CandidatesFound,
			"candidates_valid":     report.CandidatesValid,
			"candidates_invalid":   report.CandidatesInvalid,
			"senders":              report.Senders,
			"report_storage_key":   report.ReportStorageKey,
			"detail":               report.Detail,
			"completed_at":         report.CompletedAt,
			"updated_at":           report.UpdatedAt,
		})

	// If no record was updated, create a new one
	if result.RowsAffected == 0 {
		result = r.db.WithContext(ctx).Create(report)
	}

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to save run report: %w", result.Error)
	}

	return nil
}
