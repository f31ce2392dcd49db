package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/docflowhq/docflow/dto"
	coreerrors "github.com/docflowhq/docflow/internal/errors"
	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/retry"
	"github.com/docflowhq/docflow/services/classifier"
	"github.com/docflowhq/docflow/services/extractor"
	"github.com/docflowhq/docflow/services/intake"
	"github.com/docflowhq/docflow/services/report"
	"github.com/docflowhq/docflow/services/validator"
)

type stubMailSource struct {
	messages   []*models.InboundMessage
	connectErr error
	confirmed  []string
	rejected   []string
	closed     bool
}

func (s *stubMailSource) Connect(ctx context.Context) error {
	return s.connectErr
}

func (s *stubMailSource) FetchMessages(ctx context.Context, limit int) ([]*models.InboundMessage, error) {
	return s.messages, nil
}

func (s *stubMailSource) Confirm(ctx context.Context, msg *models.InboundMessage, runDate string) error {
	s.confirmed = append(s.confirmed, msg.Identity)
	return nil
}

func (s *stubMailSource) NotifyRejected(ctx context.Context, msg *models.InboundMessage, runDate string) error {
	s.rejected = append(s.rejected, msg.Identity)
	return nil
}

func (s *stubMailSource) Close() error {
	s.closed = true
	return nil
}

type stubLedger struct {
	entries map[string]bool
}

func (l *stubLedger) HasFingerprint(ctx context.Context, fingerprint string) (bool, error) {
	return l.entries[fingerprint], nil
}

func (l *stubLedger) MarkProcessed(ctx context.Context, identity, fingerprint string, processedAt time.Time) error {
	if l.entries[fingerprint] {
		return coreerrors.ErrLedgerConflict
	}
	l.entries[fingerprint] = true
	return nil
}

type stubResultRepo struct {
	created []*models.ClassificationResult
}

func (r *stubResultRepo) Create(ctx context.Context, result *models.ClassificationResult) error {
	r.created = append(r.created, result)
	return nil
}

func (r *stubResultRepo) ListByRunDate(ctx context.Context, runDate string) ([]*models.ClassificationResult, error) {
	return r.created, nil
}

type stubRecordRepo struct {
	records []*models.ValidationRecord
}

func (r *stubRecordRepo) CreateAll(ctx context.Context, records []*models.ValidationRecord) error {
	r.records = append(r.records, records...)
	return nil
}

func (r *stubRecordRepo) ListByRunDate(ctx context.Context, runDate string) ([]*models.ValidationRecord, error) {
	return r.records, nil
}

func (r *stubRecordRepo) DeleteByRunDate(ctx context.Context, runDate string) error {
	r.records = nil
	return nil
}

type stubReportRepo struct {
	saved *models.RunReport
}

func (r *stubReportRepo) GetByRunDate(ctx context.Context, runDate string) (*models.RunReport, error) {
	return nil, nil
}

func (r *stubReportRepo) Save(ctx context.Context, rr *models.RunReport) error {
	r.saved = rr
	return nil
}

type stubStorage struct {
	objects map[string][]byte
}

func (s *stubStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.objects[key] = data
	return nil
}

func (s *stubStorage) Download(ctx context.Context, key string) ([]byte, error) {
	return s.objects[key], nil
}

func (s *stubStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *stubStorage) Delete(ctx context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *stubStorage) GetPublicURL(key string) string {
	return "https://storage.test/" + key
}

type stubPublisher struct {
	events []dto.RunCompleted
}

func (p *stubPublisher) PublishRunCompleted(ctx context.Context, event dto.RunCompleted) error {
	p.events = append(p.events, event)
	return nil
}

func (p *stubPublisher) Close() error {
	return nil
}

func newTestLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	l.InitLogger()
	return l
}

func fastRetryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Multiplier: 1.0, MaxDelay: time.Millisecond}
}

func newRunner(source *stubMailSource, publisher *stubPublisher) (*Runner, *stubReportRepo, *stubRecordRepo) {
	log := newTestLogger()
	ledger := &stubLedger{entries: map[string]bool{}}
	results := &stubResultRepo{}
	records := &stubRecordRepo{}
	reports := &stubReportRepo{}
	store := &stubStorage{objects: map[string][]byte{}}

	intakeService := intake.NewIntakeService(log, source, intake.Config{
		TargetSubject: "Daily Report",
		FetchLimit:    50,
		RetryPolicy:   fastRetryPolicy(),
	})
	classifierService := classifier.NewClassifierService(log, ledger, results, store, classifier.Config{
		AcceptedContentTypes: []string{"text/plain"},
	})
	reportService := report.NewReportService(log, reports, records, store, enum.RerunOverwrite)

	runner := NewRunner(
		log,
		intakeService,
		classifierService,
		extractor.NewExtractorService(log),
		validator.NewValidatorService(log),
		reportService,
		source,
		publisher,
		Config{WorkerCount: 2},
	)
	return runner, reports, records
}

func textAttachment(name, body string) *models.Attachment {
	return &models.Attachment{
		Filename:    name,
		ContentType: "text/plain",
		Content:     []byte(body),
	}
}

func TestRun_EndToEnd(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		messages: []*models.InboundMessage{
			{
				Identity: "msg-1",
				Sender:   "alice@example.com",
				Subject:  "Daily Report",
				Attachments: []*models.Attachment{
					textAttachment("good.txt", "id 529.982.247-25 zip 01310-100 bad 111.111.111-11"),
				},
			},
			{
				Identity: "msg-2",
				Sender:   "bob@example.com",
				Subject:  "Daily Report",
				Attachments: []*models.Attachment{
					{Filename: "photo.png", ContentType: "image/png", Content: []byte{1, 2, 3}},
				},
			},
		},
	}
	publisher := &stubPublisher{}
	runner, reports, records := newRunner(source, publisher)

	// Act
	runReport, err := runner.Run(context.Background(), "2026-08-31")

	// Assert
	require.NoError(t, err)
	require.Equal(t, enum.RunCompleted, runReport.Status)
	require.Equal(t, 2, runReport.MessagesReceived)
	require.Equal(t, 1, runReport.AttachmentsAccepted)
	require.Equal(t, 1, runReport.AttachmentsRejected)
	require.Equal(t, 3, runReport.CandidatesFound)
	require.Equal(t, 2, runReport.CandidatesValid)
	require.Equal(t, 1, runReport.CandidatesInvalid)
	require.Equal(t, "reports/2026-08-31.xlsx", runReport.ReportStorageKey)
	require.ElementsMatch(t, []string{"alice@example.com", "bob@example.com"}, []string(runReport.Senders))

	require.Equal(t, []string{"msg-1"}, source.confirmed)
	require.Equal(t, []string{"msg-2"}, source.rejected)
	require.True(t, source.closed)

	require.NotNil(t, reports.saved)
	require.Len(t, records.records, 3)

	require.Len(t, publisher.events, 1)
	require.Equal(t, "2026-08-31", publisher.events[0].RunDate)
	require.Equal(t, 2, publisher.events[0].CandidatesValid)
}

func TestRun_IntakeUnavailableAbortsBeforeSideEffects(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		connectErr: errors.New("connection refused"),
	}
	publisher := &stubPublisher{}
	runner, reports, records := newRunner(source, publisher)

	// Act
	runReport, err := runner.Run(context.Background(), "2026-08-31")

	// Assert: no report, no records, no acknowledgments, no events
	require.Error(t, err)
	require.True(t, coreerrors.IsIntakeUnavailable(err))
	require.Nil(t, runReport)
	require.Nil(t, reports.saved)
	require.Empty(t, records.records)
	require.Empty(t, source.confirmed)
	require.Empty(t, source.rejected)
	require.Empty(t, publisher.events)
}

func TestRun_RedeliveredMessageIsNotReprocessed(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		messages: []*models.InboundMessage{
			{
				Identity: "msg-1",
				Sender:   "alice@example.com",
				Subject:  "Daily Report",
				Attachments: []*models.Attachment{
					textAttachment("report.txt", "id 529.982.247-25"),
				},
			},
		},
	}
	runner, _, _ := newRunner(source, &stubPublisher{})

	first, err := runner.Run(context.Background(), "2026-08-30")
	require.NoError(t, err)
	require.Equal(t, 1, first.AttachmentsAccepted)

	// Act: the same message is still in the mailbox on the next run
	second, err := runner.Run(context.Background(), "2026-08-31")

	// Assert: duplicate rejected, sender notified instead of confirmed
	require.NoError(t, err)
	require.Zero(t, second.AttachmentsAccepted)
	require.Equal(t, 1, second.AttachmentsRejected)
	require.Equal(t, []string{"msg-1"}, source.rejected)
}
