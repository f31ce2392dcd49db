package report

import (
	"context"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/opentracing/opentracing-go"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
	"github.com/docflowhq/docflow/services/storage"
)

// RunCounters are the summary figures a finished run contributes to its
// report
type RunCounters struct {
	MessagesReceived    int
	AttachmentsAccepted int
	AttachmentsRejected int
	CandidatesFound     int
	CandidatesValid     int
	CandidatesInvalid   int
	Senders             []string
}

func (c RunCounters) add(other RunCounters) RunCounters {
	return RunCounters{
		MessagesReceived:    c.MessagesReceived + other.MessagesReceived,
		AttachmentsAccepted: c.AttachmentsAccepted + other.AttachmentsAccepted,
		AttachmentsRejected: c.AttachmentsRejected + other.AttachmentsRejected,
		CandidatesFound:     c.CandidatesFound + other.CandidatesFound,
		CandidatesValid:     c.CandidatesValid + other.CandidatesValid,
		CandidatesInvalid:   c.CandidatesInvalid + other.CandidatesInvalid,
		Senders:             dedupeSenders(append(c.Senders, other.Senders...)),
	}
}

func dedupeSenders(senders []string) []string {
	seen := make(map[string]bool, len(senders))
	var out []string
	for _, sender := range senders {
		if sender == "" || seen[sender] {
			continue
		}
		seen[sender] = true
		out = append(out, sender)
	}
	sort.Strings(out)
	return out
}

// ReportService consolidates a run's outcomes into the per-date RunReport,
// persists the validation records, and files the tabular report
type ReportService struct {
	log         logger.Logger
	reports     interfaces.RunReportRepository
	records     interfaces.ValidationRecordRepository
	storage     interfaces.StorageService
	rerunPolicy enum.RerunPolicy
}

func NewReportService(
	log logger.Logger,
	reports interfaces.RunReportRepository,
	records interfaces.ValidationRecordRepository,
	storageService interfaces.StorageService,
	rerunPolicy enum.RerunPolicy,
) *ReportService {
	if rerunPolicy == "" {
		rerunPolicy = enum.RerunOverwrite
	}
	return &ReportService{
		log:         log,
		reports:     reports,
		records:     records,
		storage:     storageService,
		rerunPolicy: rerunPolicy,
	}
}

// FinalizeRun writes the run's validation records and its consolidated
// report. When a report already exists for the date, the rerun policy
// decides: overwrite discards the earlier records and counters, append folds
// the new run into them
func (s *ReportService) FinalizeRun(
	ctx context.Context,
	runDate string,
	batchID string,
	startedAt time.Time,
	counters RunCounters,
	records []*models.ValidationRecord,
) (*models.RunReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReportService.FinalizeRun")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRunDate(span, runDate)
	span.SetTag("rerun.policy", s.rerunPolicy.String())

	existing, err := s.reports.GetByRunDate(ctx, runDate)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	report := &models.RunReport{
		RunDate:   runDate,
		BatchID:   batchID,
		Status:    enum.RunCompleted,
		StartedAt: startedAt,
	}

	if existing != nil {
		report.ID = existing.ID

		switch s.rerunPolicy {
		case enum.RerunAppend:
			report.StartedAt = existing.StartedAt
			counters = counters.add(RunCounters{
				MessagesReceived:    existing.MessagesReceived,
				AttachmentsAccepted: existing.AttachmentsAccepted,
				AttachmentsRejected: existing.AttachmentsRejected,
				CandidatesFound:     existing.CandidatesFound,
				CandidatesValid:     existing.CandidatesValid,
				CandidatesInvalid:   existing.CandidatesInvalid,
				Senders:             []string(existing.Senders),
			})
		default:
			s.log.Infof("Overwriting existing report for %s", runDate)
			if err := s.records.DeleteByRunDate(ctx, runDate); err != nil {
				tracing.TraceErr(span, err)
				return nil, err
			}
		}
	}

	report.MessagesReceived = counters.MessagesReceived
	report.AttachmentsAccepted = counters.AttachmentsAccepted
	report.AttachmentsRejected = counters.AttachmentsRejected
	report.CandidatesFound = counters.CandidatesFound
	report.CandidatesValid = counters.CandidatesValid
	report.CandidatesInvalid = counters.CandidatesInvalid
	report.Senders = pq.StringArray(dedupeSenders(counters.Senders))

	if len(records) > 0 {
		if err := s.records.CreateAll(ctx, records); err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}

	// The workbook always reflects every record stored for the date, so an
	// appended rerun produces a cumulative file
	allRecords, err := s.records.ListByRunDate(ctx, runDate)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	workbook, err := buildWorkbook(report, allRecords)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	key := storage.ReportKey(runDate)
	if err := s.storage.Upload(ctx, key, workbook, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	report.ReportStorageKey = key
	report.CompletedAt = utils.NowPtr()

	report.Detail = models.JSONMap{
		"batchId":     batchID,
		"rerunPolicy": s.rerunPolicy.String(),
		"recordCount": len(allRecords),
	}
	if url := s.storage.GetPublicURL(key); url != "" {
		report.Detail["reportUrl"] = url
	}

	if err := s.reports.Save(ctx, report); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("Finalized report for %s: %d messages, %d accepted, %d rejected, %d/%d candidates valid",
		runDate, report.MessagesReceived, report.AttachmentsAccepted, report.AttachmentsRejected,
		report.CandidatesValid, report.CandidatesFound)

	return report, nil
}
