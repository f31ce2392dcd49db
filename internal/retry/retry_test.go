package retry

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Multiplier:  2.0,
		MaxDelay:    10 * time.Millisecond,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	// Arrange
	calls := 0

	// Act
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	// Arrange
	calls := 0

	// Act
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttemptCeiling(t *testing.T) {
	// Arrange
	calls := 0
	boom := errors.New("source unreachable")

	// Act
	err := testPolicy().Do(context.Background(), func(ctx context.Context) error {
		calls++
		return boom
	})

	// Assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnContextCancellation(t *testing.T) {
	// Arrange
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	// Act
	err := testPolicy().Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	// Assert
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_RejectsZeroAttempts(t *testing.T) {
	err := Policy{}.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}
