package dto

import "time"

// RunCompleted is published after a pipeline run finalizes its report
type RunCompleted struct {
	RunDate             string    `json:"runDate"`
	BatchID             string    `json:"batchId"`
	Status              string    `json:"status"`
	MessagesReceived    int       `json:"messagesReceived"`
	AttachmentsAccepted int       `json:"attachmentsAccepted"`
	AttachmentsRejected int       `json:"attachmentsRejected"`
	CandidatesFound     int       `json:"candidatesFound"`
	CandidatesValid     int       `json:"candidatesValid"`
	CandidatesInvalid   int       `json:"candidatesInvalid"`
	ReportStorageKey    string    `json:"reportStorageKey"`
	CompletedAt         time.Time `json:"completedAt"`
}
