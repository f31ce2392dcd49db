package intake

import (
	"context"
	"fmt"
	"log"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/docflowhq/docflow/interfaces"
	coreerrors "github.com/docflowhq/docflow/internal/errors"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/retry"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
)

// Config controls which messages the intake admits and how hard it tries to
// reach the mail source
type Config struct {
	TargetSubject string
	FetchLimit    int
	RetryPolicy   retry.Policy
}

// IntakeService pulls messages from the mail source and admits only the ones
// whose subject matches the configured daily report subject
type IntakeService struct {
	log           logger.Logger
	source        interfaces.MailSource
	targetSubject string
	fetchLimit    int
	retryPolicy   retry.Policy
}

func NewIntakeService(log logger.Logger, source interfaces.MailSource, config Config) *IntakeService {
	return &IntakeService{
		log:           log,
		source:        source,
		targetSubject: utils.NormalizeSubject(config.TargetSubject),
		fetchLimit:    config.FetchLimit,
		retryPolicy:   config.RetryPolicy,
	}
}

// CollectMessages connects to the mail source and fetches the current batch.
// Connection and fetch failures are retried with backoff; once the retry
// ceiling is reached the whole run is aborted with ErrIntakeUnavailable.
// Messages whose subject does not match never enter the pipeline.
func (s *IntakeService) CollectMessages(ctx context.Context) ([]*models.InboundMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IntakeService.CollectMessages")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var fetched []*models.InboundMessage

	err := s.retryPolicy.Do(ctx, func(ctx context.Context) error {
		if err := s.source.Connect(ctx); err != nil {
			log.Printf("Mail source connection failed, will retry: %v", err)
			return err
		}

		messages, err := s.source.FetchMessages(ctx, s.fetchLimit)
		if err != nil {
			log.Printf("Message fetch failed, will retry: %v", err)
			return err
		}

		fetched = messages
		return nil
	})
	if err != nil {
		err = fmt.Errorf("%w: %v", coreerrors.ErrIntakeUnavailable, err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	admitted := s.filterBySubject(fetched)

	span.LogFields(
		tracingLog.Int("messages.fetched", len(fetched)),
		tracingLog.Int("messages.admitted", len(admitted)),
	)
	s.log.Infof("Intake collected %d messages, admitted %d", len(fetched), len(admitted))

	return admitted, nil
}

// filterBySubject keeps only messages matching the target subject. Matching
// ignores case, surrounding whitespace and reply/forward prefixes.
func (s *IntakeService) filterBySubject(messages []*models.InboundMessage) []*models.InboundMessage {
	admitted := make([]*models.InboundMessage, 0, len(messages))

	for _, msg := range messages {
		if utils.NormalizeSubject(msg.Subject) != s.targetSubject {
			s.log.Debugf("Skipping message %s with subject %q", msg.Identity, msg.Subject)
			continue
		}
		admitted = append(admitted, msg)
	}

	return admitted
}
