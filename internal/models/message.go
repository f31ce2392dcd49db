package models

import (
	"time"

	"github.com/docflowhq/docflow/internal/enum"
)

// InboundMessage is a report message fetched from the mailbox, immutable once
// built by the intake layer
type InboundMessage struct {
	// Identity is a stable hash derived from the provider message id, or from
	// sender+timestamp+subject when the provider id is missing
	Identity    string
	MessageID   string
	ImapUID     uint32
	Folder      string
	Sender      string
	SenderName  string
	Subject     string
	ReceivedAt  time.Time
	Attachments []*Attachment
}

// Attachment is a document attached to an InboundMessage. Content is the raw
// bytes as delivered; Fingerprint is filled in by the classifier
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
	Fingerprint string
	// StorageKey is set once the attachment has been routed to accepted or
	// rejected storage
	StorageKey string
}

// ExtractionCandidate is a raw token matched in a document's text. Transient,
// never persisted; the validator turns each one into a ValidationRecord
type ExtractionCandidate struct {
	MessageIdentity string
	Fingerprint     string
	SourceFilename  string
	Kind            enum.FieldKind
	RawToken        string
	Position        int
}
