package extractor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/opentracing/opentracing-go"

	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
)

// PDFTextExtractor reads the plain text layer out of PDF documents
type PDFTextExtractor struct{}

func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{}
}

func (e *PDFTextExtractor) ExtractText(ctx context.Context, attachment *models.Attachment) (text string, err error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "PDFTextExtractor.ExtractText")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagFingerprint(span, attachment.Fingerprint)

	// The pdf library panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parsing panic: %v", r)
			tracing.TraceErr(span, err)
			text = ""
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(attachment.Content), int64(len(attachment.Content)))
	if err != nil {
		err = fmt.Errorf("failed to open pdf: %w", err)
		tracing.TraceErr(span, err)
		return "", err
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		err = fmt.Errorf("failed to read pdf text: %w", err)
		tracing.TraceErr(span, err)
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		err = fmt.Errorf("failed to buffer pdf text: %w", err)
		tracing.TraceErr(span, err)
		return "", err
	}

	return buf.String(), nil
}

// PlainTextExtractor passes attachment bytes through as UTF-8 text
type PlainTextExtractor struct{}

func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

func (e *PlainTextExtractor) ExtractText(ctx context.Context, attachment *models.Attachment) (string, error) {
	return string(attachment.Content), nil
}
