package interfaces

import (
	"context"

	"github.com/docflowhq/docflow/internal/models"
)

// TextExtractor turns an attachment's raw bytes into plain text for token
// scanning. How bytes become text is this collaborator's concern; the
// extractor service owns how matches are found and bounded
type TextExtractor interface {
	ExtractText(ctx context.Context, attachment *models.Attachment) (string, error)
}
