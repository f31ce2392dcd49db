package validator

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

func candidate(kind enum.FieldKind, raw string) *models.ExtractionCandidate {
	return &models.ExtractionCandidate{
		MessageIdentity: "msg-1",
		Fingerprint:     "fp-1",
		SourceFilename:  "report.pdf",
		Kind:            kind,
		RawToken:        raw,
	}
}

func validateOne(t *testing.T, kind enum.FieldKind, raw string) *models.ValidationRecord {
	t.Helper()
	service := NewValidatorService(newTestLogger())
	records := service.ValidateCandidates(context.Background(), "2026-08-31", []*models.ExtractionCandidate{candidate(kind, raw)})
	require.Len(t, records, 1)
	return records[0]
}

func TestValidateNationalID_ValidFormatted(t *testing.T) {
	record := validateOne(t, enum.FieldNationalID, "529.982.247-25")

	require.True(t, record.Valid)
	require.Equal(t, "52998224725", record.NormalizedValue)
	require.Equal(t, enum.ValidationFailureNone, record.FailureReason)
}

func TestValidateNationalID_ValidBareDigits(t *testing.T) {
	record := validateOne(t, enum.FieldNationalID, "52998224725")

	require.True(t, record.Valid)
}

func TestValidateNationalID_RepeatedDigitsRejected(t *testing.T) {
	record := validateOne(t, enum.FieldNationalID, "111.111.111-11")

	require.False(t, record.Valid)
	require.Equal(t, enum.ValidationRepeatedDigits, record.FailureReason)
}

func TestValidateNationalID_BadCheckDigit(t *testing.T) {
	record := validateOne(t, enum.FieldNationalID, "529.982.247-26")

	require.False(t, record.Valid)
	require.Equal(t, enum.ValidationBadCheckDigit, record.FailureReason)
}

func TestValidateNationalID_BadSecondCheckDigit(t *testing.T) {
	record := validateOne(t, enum.FieldNationalID, "529.982.247-24")

	require.False(t, record.Valid)
	require.Equal(t, enum.ValidationBadCheckDigit, record.FailureReason)
}

func TestValidateNationalID_BadLength(t *testing.T) {
	record := validateOne(t, enum.FieldNationalID, "529.982.247-2")

	require.False(t, record.Valid)
	require.Equal(t, enum.ValidationBadLength, record.FailureReason)
}

func TestValidatePostalCode_ValidFormatted(t *testing.T) {
	record := validateOne(t, enum.FieldPostalCode, "01310-100")

	require.True(t, record.Valid)
	require.Equal(t, "01310100", record.NormalizedValue)
}

func TestValidatePostalCode_ValidBareDigits(t *testing.T) {
	record := validateOne(t, enum.FieldPostalCode, "01310100")

	require.True(t, record.Valid)
}

func TestValidatePostalCode_TooShort(t *testing.T) {
	record := validateOne(t, enum.FieldPostalCode, "0131-100")

	require.False(t, record.Valid)
	require.Equal(t, enum.ValidationBadLength, record.FailureReason)
}

func TestValidateCandidates_InvalidCandidatesAreRetained(t *testing.T) {
	// Arrange
	service := NewValidatorService(newTestLogger())
	candidates := []*models.ExtractionCandidate{
		candidate(enum.FieldNationalID, "529.982.247-25"),
		candidate(enum.FieldNationalID, "111.111.111-11"),
		candidate(enum.FieldPostalCode, "01310-100"),
	}

	// Act
	records := service.ValidateCandidates(context.Background(), "2026-08-31", candidates)

	// Assert: one record per candidate, in input order
	require.Len(t, records, 3)
	require.True(t, records[0].Valid)
	require.False(t, records[1].Valid)
	require.True(t, records[2].Valid)
	require.Equal(t, "2026-08-31", records[0].RunDate)
}
