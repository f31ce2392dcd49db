package repository

import (
	"gorm.io/gorm"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/models"
)

type Repositories struct {
	LedgerRepository               interfaces.LedgerRepository
	ClassificationResultRepository interfaces.ClassificationResultRepository
	ValidationRecordRepository     interfaces.ValidationRecordRepository
	RunReportRepository            interfaces.RunReportRepository
}

func InitRepositories(docflowDB *gorm.DB) *Repositories {
	return &Repositories{
		LedgerRepository:               NewLedgerRepository(docflowDB),
		ClassificationResultRepository: NewClassificationResultRepository(docflowDB),
		ValidationRecordRepository:     NewValidationRecordRepository(docflowDB),
		RunReportRepository:            NewRunReportRepository(docflowDB),
	}
}

func MigrateDB(docflowDB *gorm.DB) error {
	return docflowDB.AutoMigrate(
		&models.LedgerEntry{},
		&models.ClassificationResult{},
		&models.ValidationRecord{},
		&models.RunReport{},
	)
}
