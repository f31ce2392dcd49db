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

type classificationResultRepository struct {
	db *gorm.DB
}

func NewClassificationResultRepository(db *gorm.DB) interfaces.ClassificationResultRepository {
	return &classificationResultRepository{db: db}
}

func (r *classificationResultRepository) Create(ctx context.Context, result *models.ClassificationResult) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "classificationResultRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save classification result: %w", err)
	}
	return nil
}

func (r *classificationResultRepository) ListByRunDate(ctx context.Context, runDate string) ([]*models.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "classificationResultRepository.ListByRunDate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagRunDate(span, runDate)

	var results []*models.ClassificationResult
	err := r.db.WithContext(ctx).
		Where("run_date = ?", runDate).
		Order("created_at asc").
		Find(&results).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list classification results: %w", err)
	}
	return results, nil
}
