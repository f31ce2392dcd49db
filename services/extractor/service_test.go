package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
)

func newTestLogger() logger.Logger {
	l := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	l.InitLogger()
	return l
}

func textAttachment(text string) *models.Attachment {
	return &models.Attachment{
		Filename:    "report.txt",
		ContentType: "text/plain",
		Content:     []byte(text),
		Fingerprint: "fp-1",
	}
}

func TestExtractCandidates_FindsBothKindsInOrder(t *testing.T) {
	// Arrange
	service := NewExtractorService(newTestLogger())
	text := "Customer 529.982.247-25 lives at zip 01310-100, backup id 52998224725."

	// Act
	candidates := service.ExtractCandidates(context.Background(), "msg-1", textAttachment(text))

	// Assert
	require.Len(t, candidates, 3)

	require.Equal(t, enum.FieldNationalID, candidates[0].Kind)
	require.Equal(t, "529.982.247-25", candidates[0].RawToken)

	require.Equal(t, enum.FieldPostalCode, candidates[1].Kind)
	require.Equal(t, "01310-100", candidates[1].RawToken)

	require.Equal(t, enum.FieldNationalID, candidates[2].Kind)
	require.Equal(t, "52998224725", candidates[2].RawToken)

	// Positions reflect order of appearance in the text
	require.Less(t, candidates[0].Position, candidates[1].Position)
	require.Less(t, candidates[1].Position, candidates[2].Position)

	for _, c := range candidates {
		require.Equal(t, "msg-1", c.MessageIdentity)
		require.Equal(t, "fp-1", c.Fingerprint)
		require.Equal(t, "report.txt", c.SourceFilename)
	}
}

func TestExtractCandidates_BareNationalIDIsNotAlsoAPostalCode(t *testing.T) {
	// Arrange
	service := NewExtractorService(newTestLogger())

	// Act
	candidates := service.ExtractCandidates(context.Background(), "msg-1", textAttachment("id: 52998224725"))

	// Assert: the digit run matches only once, as a national id
	require.Len(t, candidates, 1)
	require.Equal(t, enum.FieldNationalID, candidates[0].Kind)
}

func TestExtractCandidates_UnformattedPostalCode(t *testing.T) {
	// Arrange
	service := NewExtractorService(newTestLogger())

	// Act
	candidates := service.ExtractCandidates(context.Background(), "msg-1", textAttachment("cep 01310100 ok"))

	// Assert
	require.Len(t, candidates, 1)
	require.Equal(t, enum.FieldPostalCode, candidates[0].Kind)
	require.Equal(t, "01310100", candidates[0].RawToken)
}

func TestExtractCandidates_NoTokens(t *testing.T) {
	// Arrange
	service := NewExtractorService(newTestLogger())

	// Act
	candidates := service.ExtractCandidates(context.Background(), "msg-1", textAttachment("nothing to see here"))

	// Assert
	require.Empty(t, candidates)
}

func TestExtractCandidates_UnreadablePDFYieldsZeroCandidates(t *testing.T) {
	// Arrange
	service := NewExtractorService(newTestLogger())
	attachment := &models.Attachment{
		Filename:    "broken.pdf",
		ContentType: "application/pdf",
		Content:     []byte("this is not a pdf"),
		Fingerprint: "fp-broken",
	}

	// Act
	candidates := service.ExtractCandidates(context.Background(), "msg-1", attachment)

	// Assert: extraction failure is absorbed, not escalated
	require.Empty(t, candidates)
}
