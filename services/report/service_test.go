package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
)

type stubReportRepo struct {
	reports map[string]*models.RunReport
}

func newStubReportRepo() *stubReportRepo {
	return &stubReportRepo{reports: map[string]*models.RunReport{}}
}

func (r *stubReportRepo) GetByRunDate(ctx context.Context, runDate string) (*models.RunReport, error) {
	report, ok := r.reports[runDate]
	if !ok {
		return nil, nil
	}
	copied := *report
	return &copied, nil
}

func (r *stubReportRepo) Save(ctx context.Context, report *models.RunReport) error {
	copied := *report
	r.reports[report.RunDate] = &copied
	return nil
}

type stubRecordRepo struct {
	records []*models.ValidationRecord
}

func (r *stubRecordRepo) CreateAll(ctx context.Context, records []*models.ValidationRecord) error {
	r.records = append(r.records, records...)
	return nil
}

func (r *stubRecordRepo) ListByRunDate(ctx context.Context, runDate string) ([]*models.ValidationRecord, error) {
	var out []*models.ValidationRecord
	for _, rec := range r.records {
		if rec.RunDate == runDate {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRecordRepo) DeleteByRunDate(ctx context.Context, runDate string) error {
	var kept []*models.ValidationRecord
	for _, rec := range r.records {
		if rec.RunDate != runDate {
			kept = append(kept, rec)
		}
	}
	r.records = kept
	return nil
}

type stubStorage struct {
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: map[string][]byte{}}
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

func newTestLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	l.InitLogger()
	return l
}

func sampleRecord(runDate string, valid bool) *models.ValidationRecord {
	reason := enum.ValidationFailureNone
	if !valid {
		reason = enum.ValidationBadCheckDigit
	}
	return &models.ValidationRecord{
		RunDate:         runDate,
		MessageIdentity: "msg-1",
		Fingerprint:     "fp-1",
		SourceFilename:  "report.pdf",
		Kind:            enum.FieldNationalID,
		RawToken:        "529.982.247-25",
		NormalizedValue: "52998224725",
		Valid:           valid,
		FailureReason:   reason,
	}
}

func TestFinalizeRun_FirstRunForDate(t *testing.T) {
	// Arrange
	reports := newStubReportRepo()
	records := &stubRecordRepo{}
	store := newStubStorage()
	service := NewReportService(newTestLogger(), reports, records, store, enum.RerunOverwrite)

	counters := RunCounters{
		MessagesReceived:    3,
		AttachmentsAccepted: 2,
		AttachmentsRejected: 1,
		CandidatesFound:     2,
		CandidatesValid:     1,
		CandidatesInvalid:   1,
	}
	startedAt := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)

	// Act
	report, err := service.FinalizeRun(context.Background(), "2026-08-31", "batch-1", startedAt, counters,
		[]*models.ValidationRecord{sampleRecord("2026-08-31", true), sampleRecord("2026-08-31", false)})

	// Assert
	require.NoError(t, err)
	require.Equal(t, enum.RunCompleted, report.Status)
	require.Equal(t, 3, report.MessagesReceived)
	require.Equal(t, 2, report.AttachmentsAccepted)
	require.Equal(t, 1, report.CandidatesValid)
	require.Equal(t, "reports/2026-08-31.xlsx", report.ReportStorageKey)
	require.NotNil(t, report.CompletedAt)
	require.NotEmpty(t, store.objects["reports/2026-08-31.xlsx"])
	require.Len(t, records.records, 2)

	saved, err := reports.GetByRunDate(context.Background(), "2026-08-31")
	require.NoError(t, err)
	require.NotNil(t, saved)
	require.Equal(t, "batch-1", saved.BatchID)
}

func TestFinalizeRun_OverwriteReplacesEarlierRun(t *testing.T) {
	// Arrange
	reports := newStubReportRepo()
	records := &stubRecordRepo{}
	store := newStubStorage()
	service := NewReportService(newTestLogger(), reports, records, store, enum.RerunOverwrite)
	startedAt := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)

	_, err := service.FinalizeRun(context.Background(), "2026-08-31", "batch-1", startedAt,
		RunCounters{MessagesReceived: 5, CandidatesFound: 4, CandidatesValid: 4, Senders: []string{"alice@example.com"}},
		[]*models.ValidationRecord{sampleRecord("2026-08-31", true)})
	require.NoError(t, err)

	// Act: rerun the same date with different figures
	report, err := service.FinalizeRun(context.Background(), "2026-08-31", "batch-2", startedAt.Add(time.Hour),
		RunCounters{MessagesReceived: 2, CandidatesFound: 1, CandidatesValid: 1, Senders: []string{"bob@example.com"}},
		[]*models.ValidationRecord{sampleRecord("2026-08-31", true)})

	// Assert: earlier counters and records are gone
	require.NoError(t, err)
	require.Equal(t, 2, report.MessagesReceived)
	require.Equal(t, 1, report.CandidatesFound)
	require.Len(t, records.records, 1)
	require.Equal(t, "batch-2", report.BatchID)

	// The rerun's senders survive the save, replacing the first run's
	saved, err := reports.GetByRunDate(context.Background(), "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, []string{"bob@example.com"}, []string(saved.Senders))
}

func TestFinalizeRun_AppendFoldsIntoEarlierRun(t *testing.T) {
	// Arrange
	reports := newStubReportRepo()
	records := &stubRecordRepo{}
	store := newStubStorage()
	service := NewReportService(newTestLogger(), reports, records, store, enum.RerunAppend)
	startedAt := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)

	_, err := service.FinalizeRun(context.Background(), "2026-08-31", "batch-1", startedAt,
		RunCounters{MessagesReceived: 5, AttachmentsAccepted: 3, CandidatesFound: 4, CandidatesValid: 3, CandidatesInvalid: 1, Senders: []string{"alice@example.com"}},
		[]*models.ValidationRecord{sampleRecord("2026-08-31", true)})
	require.NoError(t, err)

	// Act
	report, err := service.FinalizeRun(context.Background(), "2026-08-31", "batch-2", startedAt.Add(time.Hour),
		RunCounters{MessagesReceived: 2, AttachmentsAccepted: 1, CandidatesFound: 2, CandidatesValid: 1, CandidatesInvalid: 1, Senders: []string{"bob@example.com", "alice@example.com"}},
		[]*models.ValidationRecord{sampleRecord("2026-08-31", false)})

	// Assert: counters are cumulative and records retained
	require.NoError(t, err)
	require.Equal(t, 7, report.MessagesReceived)
	require.Equal(t, 4, report.AttachmentsAccepted)
	require.Equal(t, 6, report.CandidatesFound)
	require.Equal(t, 4, report.CandidatesValid)
	require.Equal(t, 2, report.CandidatesInvalid)
	require.Equal(t, startedAt, report.StartedAt)
	require.Len(t, records.records, 2)

	// The merged, deduplicated sender list survives the save
	saved, err := reports.GetByRunDate(context.Background(), "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, []string{"alice@example.com", "bob@example.com"}, []string(saved.Senders))
}

func TestFinalizeRun_EmptyRunStillProducesReport(t *testing.T) {
	// Arrange
	reports := newStubReportRepo()
	records := &stubRecordRepo{}
	store := newStubStorage()
	service := NewReportService(newTestLogger(), reports, records, store, enum.RerunOverwrite)

	// Act
	report, err := service.FinalizeRun(context.Background(), "2026-08-31", "batch-1", time.Now().UTC(), RunCounters{}, nil)

	// Assert
	require.NoError(t, err)
	require.Zero(t, report.MessagesReceived)
	require.NotEmpty(t, store.objects["reports/2026-08-31.xlsx"])
}
