package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/utils"
)

// ValidationRecord is the validator's verdict on one extraction candidate.
// Invalid candidates are retained with a failure reason, never dropped
type ValidationRecord struct {
	ID              string                 `gorm:"column:id;type:varchar(50);primaryKey"`
	RunDate         string                 `gorm:"column:run_date;type:varchar(10);index;not null"`
	MessageIdentity string                 `gorm:"column:message_identity;type:varchar(64);index;not null"`
	Fingerprint     string                 `gorm:"column:fingerprint;type:varchar(64);index;not null"`
	SourceFilename  string                 `gorm:"column:source_filename;type:varchar(500)"`
	Kind            enum.FieldKind         `gorm:"column:kind;type:varchar(20);index;not null"`
	RawToken        string                 `gorm:"column:raw_token;type:varchar(50)"`
	NormalizedValue string                 `gorm:"column:normalized_value;type:varchar(50)"`
	Position        int                    `gorm:"column:position;default:0"`
	Valid           bool                   `gorm:"column:valid;index;not null"`
	FailureReason   enum.ValidationFailure `gorm:"column:failure_reason;type:varchar(50)"`
	CreatedAt       time.Time              `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (ValidationRecord) TableName() string {
	return "validation_records"
}

func (v *ValidationRecord) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = utils.GenerateNanoIDWithPrefix("vrec", 16)
	}
	return nil
}
