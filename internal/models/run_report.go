package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/utils"
)

// RunReport is the consolidated output of one pipeline run, keyed by run date.
// Finalized after aggregation and immutable thereafter
type RunReport struct {
	ID      string         `gorm:"column:id;type:varchar(50);primaryKey"`
	RunDate string         `gorm:"column:run_date;type:varchar(10);uniqueIndex;not null"`
	BatchID string         `gorm:"column:batch_id;type:varchar(50);not null"`
	Status  enum.RunStatus `gorm:"column:status;type:varchar(20);index;not null"`

	// Summary counters
	MessagesReceived    int `gorm:"column:messages_received;default:0"`
	AttachmentsAccepted int `gorm:"column:attachments_accepted;default:0"`
	AttachmentsRejected int `gorm:"column:attachments_rejected;default:0"`
	CandidatesFound     int `gorm:"column:candidates_found;default:0"`
	CandidatesValid     int `gorm:"column:candidates_valid;default:0"`
	CandidatesInvalid   int `gorm:"column:candidates_invalid;default:0"`

	// Distinct senders whose messages were seen during the run
	Senders pq.StringArray `gorm:"column:senders;type:text[]"`

	// Where the tabular report file was stored
	ReportStorageKey string `gorm:"column:report_storage_key;type:varchar(1000)"`

	// Raw run metadata for reference
	Detail JSONMap `gorm:"column:detail;type:jsonb"`

	StartedAt   time.Time  `gorm:"column:started_at;type:timestamp;not null"`
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamp"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (RunReport) TableName() string {
	return "run_reports"
}

func (r *RunReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = utils.GenerateNanoIDWithPrefix("run", 16)
	}
	return nil
}
