package intake

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/docflowhq/docflow/internal/errors"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/retry"
)

type stubMailSource struct {
	messages        []*models.InboundMessage
	connectErr      error
	fetchErr        error
	connectAttempts int
	fetchAttempts   int
	confirmed       []string
	rejected        []string
	failuresLeft    int
}

func (s *stubMailSource) Connect(ctx context.Context) error {
	s.connectAttempts++
	if s.failuresLeft > 0 {
		s.failuresLeft--
		return errors.New("connection refused")
	}
	return s.connectErr
}

func (s *stubMailSource) FetchMessages(ctx context.Context, limit int) ([]*models.InboundMessage, error) {
	s.fetchAttempts++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	if limit > 0 && len(s.messages) > limit {
		return s.messages[:limit], nil
	}
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
	return nil
}

func newTestLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	l.InitLogger()
	return l
}

func fastRetryPolicy(attempts int) retry.Policy {
	return retry.Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		Multiplier:  1.0,
		MaxDelay:    time.Millisecond,
	}
}

func message(identity, subject string) *models.InboundMessage {
	return &models.InboundMessage{
		Identity: identity,
		Subject:  subject,
	}
}

func TestCollectMessages_AdmitsMatchingSubjectsOnly(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		messages: []*models.InboundMessage{
			message("msg-1", "Daily Report"),
			message("msg-2", "Lunch on friday?"),
			message("msg-3", "Re: daily   report"),
			message("msg-4", "Daily Report extras"),
		},
	}
	service := NewIntakeService(newTestLogger(), source, Config{
		TargetSubject: "Daily Report",
		FetchLimit:    50,
		RetryPolicy:   fastRetryPolicy(3),
	})

	// Act
	admitted, err := service.CollectMessages(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, admitted, 2)
	require.Equal(t, "msg-1", admitted[0].Identity)
	require.Equal(t, "msg-3", admitted[1].Identity)
}

func TestCollectMessages_RecoversFromTransientFailures(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		failuresLeft: 2,
		messages: []*models.InboundMessage{
			message("msg-1", "Daily Report"),
		},
	}
	service := NewIntakeService(newTestLogger(), source, Config{
		TargetSubject: "Daily Report",
		RetryPolicy:   fastRetryPolicy(5),
	})

	// Act
	admitted, err := service.CollectMessages(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, admitted, 1)
	require.Equal(t, 3, source.connectAttempts)
}

func TestCollectMessages_AbortsAfterRetryCeiling(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		connectErr: errors.New("connection refused"),
	}
	service := NewIntakeService(newTestLogger(), source, Config{
		TargetSubject: "Daily Report",
		RetryPolicy:   fastRetryPolicy(4),
	})

	// Act
	admitted, err := service.CollectMessages(context.Background())

	// Assert
	require.Error(t, err)
	require.True(t, coreerrors.IsIntakeUnavailable(err))
	require.Nil(t, admitted)
	require.Equal(t, 4, source.connectAttempts)
	require.Zero(t, source.fetchAttempts)
	require.Empty(t, source.confirmed)
	require.Empty(t, source.rejected)
}

func TestCollectMessages_FetchFailureAlsoRetried(t *testing.T) {
	// Arrange
	source := &stubMailSource{
		fetchErr: errors.New("mailbox unavailable"),
	}
	service := NewIntakeService(newTestLogger(), source, Config{
		TargetSubject: "Daily Report",
		RetryPolicy:   fastRetryPolicy(2),
	})

	// Act
	_, err := service.CollectMessages(context.Background())

	// Assert
	require.Error(t, err)
	require.True(t, coreerrors.IsIntakeUnavailable(err))
	require.Equal(t, 2, source.fetchAttempts)
}

func TestCollectMessages_EmptyMailbox(t *testing.T) {
	// Arrange
	source := &stubMailSource{}
	service := NewIntakeService(newTestLogger(), source, Config{
		TargetSubject: "Daily Report",
		RetryPolicy:   fastRetryPolicy(1),
	})

	// Act
	admitted, err := service.CollectMessages(context.Background())

	// Assert
	require.NoError(t, err)
	require.Empty(t, admitted)
}
