package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/answerbase/answerbase/internal/ai"
	"github.com/answerbase/answerbase/internal/model"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
)

// DocumentParser extracts question/answer pairs from uploaded questionnaire
// documents. Structured formats are parsed directly; free text is handed to
// the generation model for extraction.
type DocumentParser struct {
	generator ai.IGenerator
	maxChars  int
}

func New(generator ai.IGenerator, maxChars int) *DocumentParser {
	if maxChars <= 0 {
		maxChars = 50000
	}
	return &DocumentParser{generator: generator, maxChars: maxChars}
}

// Header names that identify question and answer columns, in match order.
var (
	questionPatterns = []string{"question", "query", "ask", "q", "requirement", "item"}
	answerPatterns   = []string{"answer", "response", "reply", "a", "value", "input"}
)

// Parse extracts pairs from the document. With questionsOnly set, questions
// without answers are kept (a blank questionnaire being filled); otherwise
// only complete pairs are returned.
func (p *DocumentParser) Parse(ctx context.Context, filename string, content []byte, questionsOnly bool) ([]model.ExtractedQA, error) {
	if strings.TrimSpace(filename) == "" || len(content) == 0 {
		return nil, fmt.Errorf("%w: empty document", apperr.ErrInvalid)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return p.parseCSV(content, questionsOnly)
	case ".txt", ".md":
		return p.parseText(ctx, string(content), questionsOnly)
	default:
		return nil, fmt.Errorf("%w: unsupported file format: %s", apperr.ErrInvalid, filepath.Ext(filename))
	}
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
