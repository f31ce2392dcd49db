package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/docflowhq/docflow/internal/utils"
)

// LedgerEntry records that an attachment fingerprint has been processed.
// Duplicate suppression keys on content alone: the same document arriving in
// a different message is still a duplicate. The carrying message identity is
// kept for diagnosis. Entries are never evicted: suppression must hold across
// all historical runs
type LedgerEntry struct {
	ID                    string    `gorm:"column:id;type:varchar(50);primaryKey"`
	MessageIdentity       string    `gorm:"column:message_identity;type:varchar(64);index;not null"`
	AttachmentFingerprint string    `gorm:"column:attachment_fingerprint;type:varchar(64);uniqueIndex:idx_ledger_fingerprint;not null"`
	ProcessedAt           time.Time `gorm:"column:processed_at;type:timestamp;not null"`
	Status                string    `gorm:"column:status;type:varchar(50);not null"`
	CreatedAt             time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("ledger", 16)
	}
	return nil
}
