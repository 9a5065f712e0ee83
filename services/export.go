package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/devmarked/feedbackiq/models"
)

// exportHeader builds the column list: respondent, one column per question,
// then the fixed trailing columns.
func exportHeader(questions []models.Question) []string {
	header := make([]string, 0, len(questions)+5)
	header = append(header, "Respondent")
	for _, q := range questions {
		header = append(header, q.Title)
	}
	return append(header, "Submitted", "Status", "Completion Time (s)", "Response ID")
}

// exportRow renders one response into cells in header order.
func exportRow(questions []models.Question, r *models.SurveyResponse) []string {
	answers, err := r.Answers()
	if err != nil {
		answers = map[string]any{}
	}
	meta, _ := r.Meta()

	row := make([]string, 0, len(questions)+5)
	row = append(row, RespondentDisplay(meta))
	for _, q := range questions {
		row = append(row, NormalizeAnswer(answers[q.ID]))
	}

	status := "Complete"
	if !r.IsComplete {
		status = "Partial"
	}
	return append(row,
		r.SubmittedAt.UTC().Format(time.RFC3339),
		status,
		strconv.Itoa(r.CompletionTime),
		r.ID,
	)
}

// BuildResponsesCSV renders one row per response. Every field is
// double-quoted with embedded quotes doubled, per the export contract.
func BuildResponsesCSV(questions []models.Question, responses []models.SurveyResponse) []byte {
	buf := &bytes.Buffer{}
	writeCSVLine(buf, exportHeader(questions))
	for i := range responses {
		writeCSVLine(buf, exportRow(questions, &responses[i]))
	}
	return buf.Bytes()
}

func writeCSVLine(buf *bytes.Buffer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// BuildResponsesXLSX renders the same table as a single-sheet workbook.
func BuildResponsesXLSX(questions []models.Question, responses []models.SurveyResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Responses"
	f.SetSheetName(f.GetSheetName(0), sheet)

	writeRow := func(rowIdx int, cells []string) error {
		for col, cell := range cells {
			name, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, exportHeader(questions)); err != nil {
		return nil, err
	}
	for i := range responses {
		if err := writeRow(i+2, exportRow(questions, &responses[i])); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NormalizeAnswer flattens a decoded answer value into a cell: arrays join
// with "; ", objects JSON-stringify, nil becomes empty.
func NormalizeAnswer(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "; ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, NormalizeAnswer(e))
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// RespondentDisplay names the respondent from the contact preference:
// "Name (email)" when both were shared, the name alone otherwise, and
// "Anonymous" for anonymous or absent preferences.
func RespondentDisplay(meta models.ResponseMetadata) string {
	pref := meta.ContactPreference
	if pref == nil || pref.Anonymous {
		return "Anonymous"
	}
	if pref.Name != "" && pref.Email != "" {
		return fmt.Sprintf("%s (%s)", pref.Name, pref.Email)
	}
	if pref.Name != "" {
		return pref.Name
	}
	if pref.Email != "" {
		return pref.Email
	}
	return "Anonymous"
}
