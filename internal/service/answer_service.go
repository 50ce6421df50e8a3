package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/answerbase/answerbase/internal/ai"
	"github.com/answerbase/answerbase/internal/model"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
	"github.com/answerbase/answerbase/internal/repo"
)

const (
	maxSourceQuestions = 3
	maxContextPairs    = 5
)

// SimilaritySearcher finds the stored pairs nearest to a query embedding.
type SimilaritySearcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, k int) ([]repo.SimilarPair, error)
}

// AnswerService answers a single question: embed, search the knowledge base,
// score confidence from the match distribution, then synthesize an answer
// from the retrieved pairs.
type AnswerService struct {
	searcher  SimilaritySearcher
	embedder  ai.IEmbedder
	generator ai.IGenerator
	scorer    ConfidenceScorer
	topK      int
	timeout   time.Duration
}

func NewAnswerService(searcher SimilaritySearcher, embedder ai.IEmbedder, generator ai.IGenerator, scorer ConfidenceScorer, topK int, timeout time.Duration) *AnswerService {
	if topK <= 0 {
		topK = maxContextPairs
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnswerService{
		searcher:  searcher,
		embedder:  embedder,
		generator: generator,
		scorer:    scorer,
		topK:      topK,
		timeout:   timeout,
	}
}

// Answer processes one question. When synthesis fails after matches were
// found, the returned result still carries the closest stored answer marked
// for review, together with the error; callers decide whether to surface the
// error or keep the degraded result.
func (s *AnswerService) Answer(ctx context.Context, question string) (model.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return model.AnswerResult{}, fmt.Errorf("%w: question is required", apperr.ErrInvalid)
	}

	embedding, err := s.embedQuery(ctx, question)
	if err != nil {
		return model.AnswerResult{Question: question}, err
	}
	hits, err := s.searcher.SearchSimilar(ctx, embedding, s.topK)
	if err != nil {
		return model.AnswerResult{Question: question}, fmt.Errorf("similarity search: %w", err)
	}
	matches := toMatches(hits)

	confidence, needsReview := s.scorer.Score(matches)
	result := model.AnswerResult{
		Question:        question,
		Confidence:      confidence,
		NeedsReview:     needsReview,
		SourceQuestions: capMatches(matches, maxSourceQuestions),
	}
	if len(matches) == 0 {
		result.Reasoning = "No similar questions found in knowledge base."
		return result, nil
	}

	answer, reasoning, err := s.synthesize(ctx, question, matches)
	if err != nil {
		best := matches[0]
		result.SuggestedAnswer = best.Answer
		result.Confidence = best.Similarity
		result.NeedsReview = true
		result.Reasoning = fmt.Sprintf("Direct answer from closest match in %s; synthesis unavailable.", best.SourceFile)
		return result, err
	}
	result.SuggestedAnswer = answer
	result.Reasoning = reasoning
	return result, nil
}

func (s *AnswerService) embedQuery(ctx context.Context, question string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	embedding, err := s.embedder.Embed(ctx, question, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", apperr.ErrProvider, err)
	}
	return embedding, nil
}

const synthesizePrompt = `You are helping fill out a due diligence questionnaire. Based on previously answered similar questions, suggest an answer to a new question.

New question: %s

Previously answered similar questions:
%s

Respond with a JSON object only, no other text:
{"answer": "the suggested answer, adapted to the new question", "reasoning": "one sentence on how the previous answers support this one"}

Ground the answer in the previous answers. Do not invent facts that none of them contain.`

func (s *AnswerService) synthesize(ctx context.Context, question string, matches []model.MatchResult) (string, string, error) {
	n := len(matches)
	if n > maxContextPairs {
		n = maxContextPairs
	}
	var sb strings.Builder
	for _, m := range matches[:n] {
		fmt.Fprintf(&sb, "Similar question (similarity: %d%%):\nQ: %s\nA: %s\nSource: %s\n\n", m.Similarity, m.Question, m.Answer, m.SourceFile)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.generator.Generate(ctx, fmt.Sprintf(synthesizePrompt, question, sb.String()))
	if err != nil {
		return "", "", fmt.Errorf("%w: generate: %v", apperr.ErrSynthesis, err)
	}
	answer, reasoning, err := parseSynthesisJSON(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", apperr.ErrSynthesis, err)
	}
	return answer, reasoning, nil
}

// parseSynthesisJSON tolerates code fences and prose around the JSON object
// the model was asked for.
func parseSynthesisJSON(raw string) (string, string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return "", "", fmt.Errorf("no JSON object in model output")
	}
	var payload struct {
		Answer    string `json:"answer"`
		Reasoning string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &payload); err != nil {
		return "", "", fmt.Errorf("decode model output: %v", err)
	}
	if strings.TrimSpace(payload.Answer) == "" {
		return "", "", fmt.Errorf("model output has empty answer")
	}
	return payload.Answer, payload.Reasoning, nil
}

// similarityScore maps a raw cosine in [-1, 1] onto the 0-100 scale used
// everywhere above the repository. Negative cosines clamp to zero.
func similarityScore(cosine float64) int {
	if cosine < 0 {
		cosine = 0
	}
	if cosine > 1 {
		cosine = 1
	}
	return int(math.Round(cosine * 100))
}

func toMatches(hits []repo.SimilarPair) []model.MatchResult {
	matches := make([]model.MatchResult, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, model.MatchResult{
			Question:   h.Question,
			Answer:     h.Answer,
			SourceFile: h.SourceFile,
			Similarity: similarityScore(h.Cosine),
		})
	}
	return matches
}

func capMatches(matches []model.MatchResult, n int) []model.MatchResult {
	if len(matches) <= n {
		return matches
	}
	return matches[:n]
}
