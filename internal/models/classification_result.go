package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/utils"
)

// ClassificationResult is the immutable outcome of classifying one attachment.
// Produced once per attachment, accepted or rejected, never mutated afterwards
type ClassificationResult struct {
	ID              string                     `gorm:"column:id;type:varchar(50);primaryKey"`
	RunDate         string                     `gorm:"column:run_date;type:varchar(10);index;not null"`
	MessageIdentity string                     `gorm:"column:message_identity;type:varchar(64);index;not null"`
	Fingerprint     string                     `gorm:"column:fingerprint;type:varchar(64);index"`
	Filename        string                     `gorm:"column:filename;type:varchar(500)"`
	ContentType     string                     `gorm:"column:content_type;type:varchar(255)"`
	Outcome         enum.ClassificationOutcome `gorm:"column:outcome;type:varchar(20);index;not null"`
	RejectionReason enum.RejectionReason       `gorm:"column:rejection_reason;type:varchar(50)"`
	StorageKey      string                     `gorm:"column:storage_key;type:varchar(1000)"`
	CreatedAt       time.Time                  `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (ClassificationResult) TableName() string {
	return "classification_results"
}

func (c *ClassificationResult) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("class", 16)
	}
	return nil
}
