package retry

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Policy is a bounded exponential backoff schedule. The zero value is not
// usable; build one with DefaultPolicy or fill every field
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Multiplier:  1.5,
		MaxDelay:    2 * time.Minute,
	}
}

// Do runs op until it succeeds, the attempt ceiling is exhausted, or ctx is
// cancelled. The last error is returned wrapped with the attempt count
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		return errors.New("retry policy requires at least one attempt")
	}

	backoff := p.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * p.Multiplier)
			if backoff > p.MaxDelay {
				backoff = p.MaxDelay
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return errors.Wrapf(lastErr, "exhausted %d attempts", p.MaxAttempts)
}
