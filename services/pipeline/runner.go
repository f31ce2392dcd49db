package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"golang.org/x/sync/errgroup"

	"github.com/docflowhq/docflow/dto"
	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
	"github.com/docflowhq/docflow/services/classifier"
	"github.com/docflowhq/docflow/services/extractor"
	"github.com/docflowhq/docflow/services/intake"
	"github.com/docflowhq/docflow/services/report"
	"github.com/docflowhq/docflow/services/validator"
)

// Config bounds a pipeline run
type Config struct {
	WorkerCount int
	RunTimeout  time.Duration
}

// Runner executes one end-to-end pipeline run: collect messages, classify
// attachments, extract and validate field candidates, then consolidate the
// run report. Messages are processed by a bounded pool of workers
type Runner struct {
	log        logger.Logger
	intake     *intake.IntakeService
	classifier *classifier.ClassifierService
	extractor  *extractor.ExtractorService
	validator  *validator.ValidatorService
	report     *report.ReportService
	source     interfaces.MailSource
	publisher  interfaces.EventPublisher
	config     Config
}

func NewRunner(
	log logger.Logger,
	intakeService *intake.IntakeService,
	classifierService *classifier.ClassifierService,
	extractorService *extractor.ExtractorService,
	validatorService *validator.ValidatorService,
	reportService *report.ReportService,
	source interfaces.MailSource,
	publisher interfaces.EventPublisher,
	config Config,
) *Runner {
	if config.WorkerCount < 1 {
		config.WorkerCount = 4
	}
	return &Runner{
		log:        log,
		intake:     intakeService,
		classifier: classifierService,
		extractor:  extractorService,
		validator:  validatorService,
		report:     reportService,
		source:     source,
		publisher:  publisher,
		config:     config,
	}
}

// messageOutcome is what one worker produced for one message
type messageOutcome struct {
	message  *models.InboundMessage
	accepted int
	rejected int
	records  []*models.ValidationRecord
}

// Run executes the pipeline for the given run date. An unreachable mail
// source aborts the run before any side effect; everything after intake is
// folded into the run report
func (r *Runner) Run(ctx context.Context, runDate string) (*models.RunReport, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Runner.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRunDate(span, runDate)

	if r.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.RunTimeout)
		defer cancel()
	}

	batchID := utils.GenerateNanoIDWithPrefix("batch", 16)
	startedAt := utils.Now()
	span.SetTag("batch.id", batchID)

	r.log.Infof("Starting pipeline run %s for %s", batchID, runDate)

	messages, err := r.intake.CollectMessages(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer func() {
		if err := r.source.Close(); err != nil {
			r.log.Warnf("Error closing mail source: %v", err)
		}
	}()

	outcomes, err := r.processMessages(ctx, runDate, messages)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	counters := report.RunCounters{MessagesReceived: len(messages)}
	for _, msg := range messages {
		counters.Senders = append(counters.Senders, msg.Sender)
	}
	var records []*models.ValidationRecord

	for _, outcome := range outcomes {
		counters.AttachmentsAccepted += outcome.accepted
		counters.AttachmentsRejected += outcome.rejected
		for _, record := range outcome.records {
			counters.CandidatesFound++
			if record.Valid {
				counters.CandidatesValid++
			} else {
				counters.CandidatesInvalid++
			}
		}
		records = append(records, outcome.records...)
	}

	runReport, err := r.report.FinalizeRun(ctx, runDate, batchID, startedAt, counters, records)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	r.publishCompletion(ctx, runReport)

	span.LogFields(
		tracingLog.Int("messages", counters.MessagesReceived),
		tracingLog.Int("attachments.accepted", counters.AttachmentsAccepted),
		tracingLog.Int("candidates.valid", counters.CandidatesValid),
	)
	r.log.Infof("Pipeline run %s finished: %d messages, %d accepted, %d rejected",
		batchID, counters.MessagesReceived, counters.AttachmentsAccepted, counters.AttachmentsRejected)

	return runReport, nil
}

// processMessages fans the batch out to a bounded worker pool. One message
// failing hard stops the run; acknowledgment failures only log, since the
// ledger already guarantees at-most-once processing on redelivery
func (r *Runner) processMessages(ctx context.Context, runDate string, messages []*models.InboundMessage) ([]*messageOutcome, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Runner.processMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var mu sync.Mutex
	outcomes := make([]*messageOutcome, 0, len(messages))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.config.WorkerCount)

	for _, msg := range messages {
		msg := msg
		group.Go(func() error {
			outcome, err := r.processMessage(groupCtx, runDate, msg)
			if err != nil {
				return err
			}

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	return outcomes, nil
}

func (r *Runner) processMessage(ctx context.Context, runDate string, msg *models.InboundMessage) (*messageOutcome, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Runner.processMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessageIdentity(span, msg.Identity)

	classification, err := r.classifier.ClassifyMessage(ctx, msg, runDate)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	outcome := &messageOutcome{
		message:  msg,
		accepted: len(classification.Accepted),
		rejected: len(classification.Results) - len(classification.Accepted),
	}

	for _, attachment := range classification.Accepted {
		candidates := r.extractor.ExtractCandidates(ctx, msg.Identity, attachment)
		records := r.validator.ValidateCandidates(ctx, runDate, candidates)
		outcome.records = append(outcome.records, records...)
	}

	// Acknowledge only after every accepted attachment is in the ledger
	r.acknowledge(ctx, msg, runDate, outcome.accepted > 0)

	return outcome, nil
}

// acknowledge replies to the sender and files the message. Failures are
// logged, not escalated: a message left behind is rejected as a duplicate on
// the next run
func (r *Runner) acknowledge(ctx context.Context, msg *models.InboundMessage, runDate string, anyAccepted bool) {
	var err error
	if anyAccepted {
		err = r.source.Confirm(ctx, msg, runDate)
	} else {
		err = r.source.NotifyRejected(ctx, msg, runDate)
	}
	if err != nil {
		r.log.Warnf("Failed to acknowledge message %s: %v", msg.Identity, err)
	}
}

func (r *Runner) publishCompletion(ctx context.Context, runReport *models.RunReport) {
	if r.publisher == nil {
		return
	}

	event := dto.RunCompleted{
		RunDate:             runReport.RunDate,
		BatchID:             runReport.BatchID,
		Status:              runReport.Status.String(),
		MessagesReceived:    runReport.MessagesReceived,
		AttachmentsAccepted: runReport.AttachmentsAccepted,
		AttachmentsRejected: runReport.AttachmentsRejected,
		CandidatesFound:     runReport.CandidatesFound,
		CandidatesValid:     runReport.CandidatesValid,
		CandidatesInvalid:   runReport.CandidatesInvalid,
		ReportStorageKey:    runReport.ReportStorageKey,
		CompletedAt:         utils.Now(),
	}

	if err := r.publisher.PublishRunCompleted(ctx, event); err != nil {
		r.log.Errorf("Failed to publish run completed event: %v", err)
	}
}
