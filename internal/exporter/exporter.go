package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/answerbase/answerbase/internal/model"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
)

// QuestionnaireExporter writes suggested answers back into the uploaded
// template, preserving its layout, and streams the filled document.
type QuestionnaireExporter struct{}

func New() *QuestionnaireExporter {
	return &QuestionnaireExporter{}
}

var (
	questionPatterns = []string{"question", "query", "ask", "q", "requirement", "item"}
	answerPatterns   = []string{"answer", "response", "reply", "a", "value", "input"}
)

// Export fills the template with the supplied answers and returns the
// document bytes plus their content type.
func (e *QuestionnaireExporter) Export(filename string, template []byte, answers []model.AnswerResult) ([]byte, string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		out, err := e.exportCSV(template, answers)
		return out, "text/csv", err
	default:
		return nil, "", fmt.Errorf("%w: unsupported export format: %s", apperr.ErrInvalid, filepath.Ext(filename))
	}
}

func (e *QuestionnaireExporter) exportCSV(template []byte, answers []model.AnswerResult) ([]byte, error) {
	reader := csv.NewReader(bytes.NewReader(template))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed csv template: %v", apperr.ErrInvalid, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty template", apperr.ErrInvalid)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	questionCol := matchColumn(headers, questionPatterns, -1)
	answerCol := matchColumn(headers, answerPatterns, questionCol)

	answerMap := make(map[string]model.AnswerResult, len(answers))
	for _, a := range answers {
		answerMap[strings.TrimSpace(a.Question)] = a
	}

	if questionCol >= 0 && answerCol >= 0 {
		for i, row := range records[1:] {
			if questionCol >= len(row) {
				continue
			}
			question := strings.TrimSpace(row[questionCol])
			result, ok := answerMap[question]
			if !ok || result.SuggestedAnswer == "" {
				continue
			}
			// Rows can be shorter than the header when the answer cell
			// was omitted entirely.
			for answerCol >= len(row) {
				row = append(row, "")
			}
			row[answerCol] = result.SuggestedAnswer
			records[i+1] = row
		}
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func matchColumn(headers []string, patterns []string, exclude int) int {
	for _, pattern := range patterns {
		for i, header := range headers {
			if i == exclude {
				continue
			}
			if strings.Contains(header, pattern) {
				return i
			}
		}
	}
	return -1
}
