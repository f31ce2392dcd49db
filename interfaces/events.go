package interfaces

import (
	"context"

	"github.com/docflowhq/docflow/dto"
)

type EventPublisher interface {
	PublishRunCompleted(ctx context.Context, event dto.RunCompleted) error
	Close() error
}
