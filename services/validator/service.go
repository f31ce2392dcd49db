package validator

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/docflowhq/docflow/internal/enum"
	"github.com/docflowhq/docflow/internal/logger"
	"github.com/docflowhq/docflow/internal/models"
	"github.com/docflowhq/docflow/internal/tracing"
	"github.com/docflowhq/docflow/internal/utils"
)

const (
	nationalIDLength = 11
	postalCodeLength = 8
)

// ValidatorService checks extraction candidates and produces one record per
// candidate, valid or not
type ValidatorService struct {
	log logger.Logger
}

func NewValidatorService(log logger.Logger) *ValidatorService {
	return &ValidatorService{log: log}
}

// ValidateCandidates produces a ValidationRecord for every candidate. Nothing
// is dropped; invalid candidates carry their failure reason
func (s *ValidatorService) ValidateCandidates(ctx context.Context, runDate string, candidates []*models.ExtractionCandidate) []*models.ValidationRecord {
	span, _ := opentracing.StartSpanFromContext(ctx, "ValidatorService.ValidateCandidates")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRunDate(span, runDate)

	records := make([]*models.ValidationRecord, 0, len(candidates))
	validCount := 0

	for _, candidate := range candidates {
		record := s.validate(runDate, candidate)
		if record.Valid {
			validCount++
		}
		records = append(records, record)
	}

	span.LogFields(
		tracingLog.Int("candidates.total", len(candidates)),
		tracingLog.Int("candidates.valid", validCount),
	)

	return records
}

func (s *ValidatorService) validate(runDate string, candidate *models.ExtractionCandidate) *models.ValidationRecord {
	normalized := utils.StripSeparators(candidate.RawToken)

	record := &models.ValidationRecord{
		RunDate:         runDate,
		MessageIdentity: candidate.MessageIdentity,
		Fingerprint:     candidate.Fingerprint,
		SourceFilename:  candidate.SourceFilename,
		Kind:            candidate.Kind,
		RawToken:        candidate.RawToken,
		NormalizedValue: normalized,
		Position:        candidate.Position,
	}

	var failure enum.ValidationFailure
	switch candidate.Kind {
	case enum.FieldNationalID:
		failure = checkNationalID(normalized)
	case enum.FieldPostalCode:
		failure = checkPostalCode(normalized)
	default:
		failure = enum.ValidationBadStructure
	}

	record.Valid = failure == enum.ValidationFailureNone
	record.FailureReason = failure

	return record
}

// checkNationalID verifies an 11-digit id: not all digits identical, and both
// check digits correct. Each check digit is 11 minus the weighted digit sum
// mod 11, with results of 10 and 11 collapsing to zero. The first digit
// weights the leading nine digits 10 down to 2; the second weights the
// leading ten digits 11 down to 2
func checkNationalID(digits string) enum.ValidationFailure {
	if len(digits) != nationalIDLength {
		return enum.ValidationBadLength
	}

	allSame := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return enum.ValidationRepeatedDigits
	}

	if checkDigit(digits, 9) != int(digits[9]-'0') {
		return enum.ValidationBadCheckDigit
	}
	if checkDigit(digits, 10) != int(digits[10]-'0') {
		return enum.ValidationBadCheckDigit
	}

	return enum.ValidationFailureNone
}

// checkDigit computes the mod-11 check digit over the first n digits, with
// weights n+1 down to 2
func checkDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	digit := 11 - sum%11
	if digit >= 10 {
		return 0
	}
	return digit
}

// checkPostalCode verifies a postal code is exactly eight digits
func checkPostalCode(digits string) enum.ValidationFailure {
	if len(digits) != postalCodeLength {
		return enum.ValidationBadLength
	}
	return enum.ValidationFailureNone
}
