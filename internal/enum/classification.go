package enum

type ClassificationOutcome string

const (
	AttachmentAccepted ClassificationOutcome = "accepted"
	AttachmentRejected ClassificationOutcome = "rejected"
)

func (t ClassificationOutcome) String() string {
	return string(t)
}

type RejectionReason string

const (
	RejectionNone             RejectionReason = ""
	RejectionInvalidType      RejectionReason = "invalid_type"
	RejectionEmptyContent     RejectionReason = "empty_content"
	RejectionDuplicate        RejectionReason = "duplicate_fingerprint"
	RejectionUnmatchedSubject RejectionReason = "unmatched_subject"
)

func (t RejectionReason) String() string {
	return string(t)
}
