package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/answerbase/answerbase/internal/model"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
)

func (p *DocumentParser) parseCSV(content []byte, questionsOnly bool) ([]model.ExtractedQA, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed csv: %v", apperr.ErrInvalid, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	questionCol := matchColumn(headers, questionPatterns, -1)
	if questionCol < 0 {
		return nil, fmt.Errorf("%w: no question column found", apperr.ErrInvalid)
	}
	answerCol := matchColumn(headers, answerPatterns, questionCol)

	var pairs []model.ExtractedQA
	for _, row := range records[1:] {
		if questionCol >= len(row) {
			continue
		}
		question := strings.TrimSpace(row[questionCol])
		if question == "" {
			continue
		}
		answer := ""
		if answerCol >= 0 && answerCol < len(row) {
			answer = strings.TrimSpace(row[answerCol])
		}
		if !questionsOnly && answer == "" {
			continue
		}
		pairs = append(pairs, model.ExtractedQA{Question: question, Answer: answer})
	}
	return pairs, nil
}
