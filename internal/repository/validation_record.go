package repository

import (
	"context"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
)

type validationRecordRepository struct {
	db *gorm.DB
}

func NewValidationRecordRepository(db *gorm.DB) interfaces.ValidationRecordRepository {
	return &validationRecordRepository{db: db}
}

func (r *validationRecordRepository) CreateAll(ctx context.Context, records []*models.ValidationRecord) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "validationRecordRepository.CreateAll")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if len(records) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(records).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save validation records: %w", err)
	}
	return nil
}

func (r *validationRecordRepository) ListByRunDate(ctx context.Context, runDate string) ([]*models.ValidationRecord, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "validationRecordRepository.ListByRunDate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagRunDate(span, runDate)

	var records []*models.ValidationRecord
	err := r.db.WithContext(ctx).
		Where("run_date = ?", runDate).
		Order("created_at asc").
		Find(&records).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list validation records: %w", err)
	}
	return records, nil
}

func (r *validationRecordRepository) DeleteByRunDate(ctx context.Context, runDate string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "validationRecordRepository.DeleteByRunDate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagRunDate(span, runDate)

	result := r.db.WithContext(ctx).
		Where("run_date = ?", runDate).
		Delete(&models.ValidationRecord{})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to delete validation records: %w", result.Error)
	}
	return nil
}
