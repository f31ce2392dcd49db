package classifier

import (
	"context"
	"strings"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/docflowhq/docflow/interfaces"
	coreerrors "github.com/docflowhq/docflow/internal/errors"
	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
	"github.com/docflowhq/docflow/services/storage"
)

// Config controls which attachment content types the classifier accepts
type Config struct {
	AcceptedContentTypes []string
}

// MessageClassification is the classifier's verdict for one message: the
// attachments that passed every check, plus one result row per attachment
type MessageClassification struct {
	Accepted []*models.Attachment
	Results  []*models.ClassificationResult
}

// ClassifierService decides, per attachment, whether a document is admitted
// for extraction. Checks run in a fixed order: content type, emptiness,
// duplicate fingerprint. Accepted and rejected documents are both filed in
// object storage, and every accepted document is recorded in the ledger
// before the message can be acknowledged
type ClassifierService struct {
	log           logger.Logger
	ledger        interfaces.LedgerRepository
	results       interfaces.ClassificationResultRepository
	storage       interfaces.StorageService
	acceptedTypes map[string]bool
}

func NewClassifierService(
	log logger.Logger,
	ledger interfaces.LedgerRepository,
	results interfaces.ClassificationResultRepository,
	storageService interfaces.StorageService,
	config Config,
) *ClassifierService {
	acceptedTypes := make(map[string]bool)
	for _, ct := range config.AcceptedContentTypes {
		acceptedTypes[normalizeContentType(ct)] = true
	}
	if len(acceptedTypes) == 0 {
		acceptedTypes["application/pdf"] = true
	}

	return &ClassifierService{
		log:           log,
		ledger:        ledger,
		results:       results,
		storage:       storageService,
		acceptedTypes: acceptedTypes,
	}
}

// ClassifyMessage runs every attachment of a message through the checks and
// files the documents. Attachments are processed in order of appearance
func (s *ClassifierService) ClassifyMessage(ctx context.Context, msg *models.InboundMessage, runDate string) (*MessageClassification, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.ClassifyMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessageIdentity(span, msg.Identity)
	tracing.TagRunDate(span, runDate)

	classification := &MessageClassification{}

	for _, attachment := range msg.Attachments {
		result, err := s.classifyAttachment(ctx, msg, attachment, runDate)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}

		classification.Results = append(classification.Results, result)
		if result.Outcome == enum.AttachmentAccepted {
			classification.Accepted = append(classification.Accepted, attachment)
		}
	}

	span.LogFields(
		tracingLog.Int("attachments.total", len(classification.Results)),
		tracingLog.Int("attachments.accepted", len(classification.Accepted)),
	)

	return classification, nil
}

func (s *ClassifierService) classifyAttachment(ctx context.Context, msg *models.InboundMessage, attachment *models.Attachment, runDate string) (*models.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.classifyAttachment")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	attachment.Fingerprint = utils.Fingerprint(attachment.Content)
	tracing.TagFingerprint(span, attachment.Fingerprint)

	if !s.acceptedTypes[normalizeContentType(attachment.ContentType)] {
		return s.reject(ctx, msg, attachment, runDate, enum.RejectionInvalidType)
	}

	if len(attachment.Content) == 0 {
		return s.reject(ctx, msg, attachment, runDate, enum.RejectionEmptyContent)
	}

	processed, err := s.ledger.HasFingerprint(ctx, attachment.Fingerprint)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if processed {
		return s.reject(ctx, msg, attachment, runDate, enum.RejectionDuplicate)
	}

	return s.accept(ctx, msg, attachment, runDate)
}

// accept files the document in the accepted partition and marks the ledger.
// A ledger conflict here means a concurrent worker won the insert: the upload
// is rolled back and the attachment is rejected as a duplicate
func (s *ClassifierService) accept(ctx context.Context, msg *models.InboundMessage, attachment *models.Attachment, runDate string) (*models.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.accept")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	ext := utils.FileExtensionForContentType(attachment.ContentType)
	key := storage.AcceptedKey(runDate, attachment.Fingerprint, ext)

	if err := s.storage.Upload(ctx, key, attachment.Content, attachment.ContentType); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	err := s.ledger.MarkProcessed(ctx, msg.Identity, attachment.Fingerprint, utils.Now())
	if err != nil {
		if coreerrors.IsLedgerConflict(err) {
			s.log.Warnf("Ledger conflict for %s/%s, rejecting as duplicate", msg.Identity, attachment.Fingerprint)
			if deleteErr := s.storage.Delete(ctx, key); deleteErr != nil {
				tracing.TraceErr(span, deleteErr)
			}
			return s.reject(ctx, msg, attachment, runDate, enum.RejectionDuplicate)
		}
		tracing.TraceErr(span, err)
		return nil, err
	}

	attachment.StorageKey = key

	result := &models.ClassificationResult{
		RunDate:         runDate,
		MessageIdentity: msg.Identity,
		Fingerprint:     attachment.Fingerprint,
		Filename:        attachment.Filename,
		ContentType:     attachment.ContentType,
		Outcome:         enum.AttachmentAccepted,
		StorageKey:      key,
	}

	if err := s.results.Create(ctx, result); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("Accepted attachment %q (%s) from message %s", attachment.Filename, attachment.Fingerprint, msg.Identity)
	return result, nil
}

// reject files the document in the rejected partition, tagged with its reason,
// and records the verdict. Rejected documents never touch the ledger
func (s *ClassifierService) reject(ctx context.Context, msg *models.InboundMessage, attachment *models.Attachment, runDate string, reason enum.RejectionReason) (*models.ClassificationResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ClassifierService.reject")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("rejection.reason", reason.String())

	result := &models.ClassificationResult{
		RunDate:         runDate,
		MessageIdentity: msg.Identity,
		Fingerprint:     attachment.Fingerprint,
		Filename:        attachment.Filename,
		ContentType:     attachment.ContentType,
		Outcome:         enum.AttachmentRejected,
		RejectionReason: reason,
	}

	if len(attachment.Content) > 0 {
		ext := utils.FileExtensionForContentType(attachment.ContentType)
		key := storage.RejectedKey(runDate, attachment.Fingerprint, reason.String(), ext)
		if err := s.storage.Upload(ctx, key, attachment.Content, attachment.ContentType); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
		result.StorageKey = key
	}

	if err := s.results.Create(ctx, result); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("Rejected attachment %q from message %s: %s", attachment.Filename, msg.Identity, reason)
	return result, nil
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
