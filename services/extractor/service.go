package extractor

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/docflowhq/docflow/interfaces"
	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
)

// Token patterns for the two field kinds the pipeline knows about. National
// ids accept the conventional dotted/dashed formatting or bare digits; postal
// codes are five digits, an optional dash, three digits. The trailing word
// boundary keeps a match from starting inside a longer digit run
var (
	nationalIDRegex = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}-?\d{2}\b`)
	postalCodeRegex = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)
)

// ExtractorService scans accepted documents for field candidates. A document
// whose text cannot be read yields zero candidates and a warning, never a
// run failure
type ExtractorService struct {
	log       logger.Logger
	pdf       interfaces.TextExtractor
	plainText interfaces.TextExtractor
}

func NewExtractorService(log logger.Logger) *ExtractorService {
	return &ExtractorService{
		log:       log,
		pdf:       NewPDFTextExtractor(),
		plainText: NewPlainTextExtractor(),
	}
}

// ExtractCandidates finds every national id and postal code candidate in an
// attachment's text, in order of appearance. Overlapping matches of the same
// kind are not produced; the leftmost match wins
func (s *ExtractorService) ExtractCandidates(ctx context.Context, messageIdentity string, attachment *models.Attachment) []*models.ExtractionCandidate {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ExtractorService.ExtractCandidates")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessageIdentity(span, messageIdentity)
	tracing.TagFingerprint(span, attachment.Fingerprint)

	text, err := s.textFor(ctx, attachment)
	if err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("Text extraction failed for %q (%s), document yields no candidates: %v",
			attachment.Filename, attachment.Fingerprint, err)
		return nil
	}

	candidates := scanText(text, messageIdentity, attachment)

	span.LogFields(tracingLog.Int("candidates.found", len(candidates)))
	return candidates
}

func (s *ExtractorService) textFor(ctx context.Context, attachment *models.Attachment) (string, error) {
	if strings.Contains(strings.ToLower(attachment.ContentType), "pdf") {
		return s.pdf.ExtractText(ctx, attachment)
	}
	return s.plainText.ExtractText(ctx, attachment)
}

// scanText runs both token patterns over the text and merges the matches by
// position
func scanText(text, messageIdentity string, attachment *models.Attachment) []*models.ExtractionCandidate {
	var candidates []*models.ExtractionCandidate

	for _, loc := range nationalIDRegex.FindAllStringIndex(text, -1) {
		candidates = append(candidates, &models.ExtractionCandidate{
			MessageIdentity: messageIdentity,
			Fingerprint:     attachment.Fingerprint,
			SourceFilename:  attachment.Filename,
			Kind:            enum.FieldNationalID,
			RawToken:        text[loc[0]:loc[1]],
			Position:        loc[0],
		})
	}

	for _, loc := range postalCodeRegex.FindAllStringIndex(text, -1) {
		candidates = append(candidates, &models.ExtractionCandidate{
			MessageIdentity: messageIdentity,
			Fingerprint:     attachment.Fingerprint,
			SourceFilename:  attachment.Filename,
			Kind:            enum.FieldPostalCode,
			RawToken:        text[loc[0]:loc[1]],
			Position:        loc[0],
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Position < candidates[j].Position
	})

	return candidates
}
