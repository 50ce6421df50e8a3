package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/answerbase/answerbase/internal/model"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
)

const extractPairsPrompt = `Extract all question-answer pairs from this due diligence/compliance questionnaire document.

Return a JSON array of objects with "question" and "answer" fields.
Only include actual Q&A pairs, not headers or instructions.
If a question has no answer, skip it.

Document text:
%s

Return ONLY a valid JSON array, no other text. Example format:
[{"question": "What is your company name?", "answer": "Acme Corp"}]`

const extractQuestionsPrompt = `Extract all questions from this due diligence/compliance questionnaire document.
This is a NEW questionnaire to be filled out, so answers may be missing or empty.

Return a JSON array of objects with "question" and "answer" fields.
For questions without answers, set "answer" to an empty string.
Only include actual questions, not headers or instructions.

Document text:
%s

Return ONLY a valid JSON array, no other text. Example format:
[{"question": "What is your company name?", "answer": ""}]`

func (p *DocumentParser) parseText(ctx context.Context, text string, questionsOnly bool) ([]model.ExtractedQA, error) {
	if p.generator == nil {
		return nil, fmt.Errorf("%w: no generation model configured for unstructured documents", apperr.ErrProvider)
	}
	if len(text) > p.maxChars {
		cut := p.maxChars
		// Never split a multi-byte rune at the cut point.
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "\n...[truncated]"
	}
	prompt := extractPairsPrompt
	if questionsOnly {
		prompt = extractQuestionsPrompt
	}
	output, err := p.generator.Generate(ctx, fmt.Sprintf(prompt, text))
	if err != nil {
		return nil, fmt.Errorf("%w: extract pairs: %v", apperr.ErrProvider, err)
	}
	extracted, err := parsePairsJSON(output)
	if err != nil {
		return nil, err
	}

	pairs := make([]model.ExtractedQA, 0, len(extracted))
	for _, item := range extracted {
		question := strings.TrimSpace(item.Question)
		answer := strings.TrimSpace(item.Answer)
		if question == "" {
			continue
		}
		if !questionsOnly && answer == "" {
			continue
		}
		pairs = append(pairs, model.ExtractedQA{Question: question, Answer: answer})
	}
	return pairs, nil
}

func parsePairsJSON(output string) ([]model.ExtractedQA, error) {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}
	var pairs []model.ExtractedQA
	if err := json.Unmarshal([]byte(clean), &pairs); err != nil {
		return nil, fmt.Errorf("%w: parse extraction output: %v", apperr.ErrProvider, err)
	}
	return pairs, nil
}
