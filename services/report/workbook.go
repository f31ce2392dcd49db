package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/docflowhq/docflow/internal/models"
)

const validationSheet = "Validations"

// buildWorkbook renders the run's validation records and summary counters as
// an xlsx file
func buildWorkbook(report *models.RunReport, records []*models.ValidationRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", validationSheet)

	headers := []string{"Source File", "Field", "Raw Token", "Normalized Value", "Valid", "Failure Reason"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(validationSheet, cell, header); err != nil {
			return nil, err
		}
	}

	row := 2
	for _, record := range records {
		validity := "valid"
		if !record.Valid {
			validity = "invalid"
		}

		values := []interface{}{
			record.SourceFilename,
			record.Kind.String(),
			record.RawToken,
			record.NormalizedValue,
			validity,
			record.FailureReason.String(),
		}
		for i, value := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(validationSheet, cell, value); err != nil {
				return nil, err
			}
		}
		row++
	}

	// Summary block below the records, separated by one blank row
	row++
	summary := []struct {
		label string
		value int
	}{
		{"Messages received", report.MessagesReceived},
		{"Attachments accepted", report.AttachmentsAccepted},
		{"Attachments rejected", report.AttachmentsRejected},
		{"Candidates found", report.CandidatesFound},
		{"Candidates valid", report.CandidatesValid},
		{"Candidates invalid", report.CandidatesInvalid},
	}

	if err := f.SetCellValue(validationSheet, fmt.Sprintf("A%d", row), "Run summary "+report.RunDate); err != nil {
		return nil, err
	}
	row++

	for _, item := range summary {
		if err := f.SetCellValue(validationSheet, fmt.Sprintf("A%d", row), item.label); err != nil {
			return nil, err
		}
		if err := f.SetCellValue(validationSheet, fmt.Sprintf("B%d", row), item.value); err != nil {
			return nil, err
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
