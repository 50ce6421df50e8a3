package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerbase/answerbase/internal/repo"
)

// echoGenerator answers with the question number embedded in the prompt so
// tests can verify result ordering.
type echoGenerator struct {
	inflight atomic.Int32
	peak     atomic.Int32
}

func (g *echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	n := g.inflight.Add(1)
	defer g.inflight.Add(-1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	start := strings.Index(prompt, "New question: q")
	if start < 0 {
		return "", fmt.Errorf("question missing from prompt")
	}
	rest := prompt[start+len("New question: q"):]
	num := rest[:strings.IndexByte(rest, '\n')]
	return fmt.Sprintf(`{"answer": "answer-%s", "reasoning": "r"}`, num), nil
}

func newTestBatchService(workers int, gen *echoGenerator) *BatchService {
	searcher := &fakeSearcher{hits: []repo.SimilarPair{
		{Question: "stored", Answer: "stored answer", SourceFile: "kb.csv", Cosine: 0.92},
	}}
	answers := NewAnswerService(searcher, &fakeEmbedder{vec: []float32{1}}, gen, ConfidenceScorer{}, 5, 0)
	return NewBatchService(answers, workers)
}

func TestFillPreservesOrder(t *testing.T) {
	svc := newTestBatchService(4, &echoGenerator{})
	questions := make([]string, 20)
	for i := range questions {
		questions[i] = "q" + strconv.Itoa(i)
	}
	results, summary := svc.Fill(context.Background(), questions)
	require.Len(t, results, 20)
	for i, r := range results {
		assert.Equal(t, questions[i], r.Question)
		assert.Equal(t, "answer-"+strconv.Itoa(i), r.SuggestedAnswer)
	}
	assert.Equal(t, 20, summary.HighConfidence)
	assert.Equal(t, 0, summary.NeedsReview)
}

func TestFillBoundsConcurrency(t *testing.T) {
	gen := &echoGenerator{}
	svc := newTestBatchService(3, gen)
	questions := make([]string, 30)
	for i := range questions {
		questions[i] = "q" + strconv.Itoa(i)
	}
	svc.Fill(context.Background(), questions)
	assert.LessOrEqual(t, gen.peak.Load(), int32(3))
}

func TestFillEmptyInput(t *testing.T) {
	svc := newTestBatchService(4, &echoGenerator{})
	results, summary := svc.Fill(context.Background(), nil)
	assert.Empty(t, results)
	assert.Zero(t, summary)
}

func TestFillKeepsDegradedResults(t *testing.T) {
	searcher := &fakeSearcher{hits: []repo.SimilarPair{
		{Question: "stored", Answer: "stored answer", SourceFile: "kb.csv", Cosine: 0.92},
	}}
	answers := NewAnswerService(searcher, &fakeEmbedder{vec: []float32{1}}, &fakeGenerator{err: fmt.Errorf("down")}, ConfidenceScorer{}, 5, 0)
	svc := NewBatchService(answers, 2)

	results, summary := svc.Fill(context.Background(), []string{"q1", "q2"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "stored answer", r.SuggestedAnswer)
		assert.True(t, r.NeedsReview)
		assert.Equal(t, 92, r.Confidence)
	}
	assert.Equal(t, 2, summary.NeedsReview)
}

func TestFillBlankQuestionDegrades(t *testing.T) {
	svc := newTestBatchService(2, &echoGenerator{})
	results, _ := svc.Fill(context.Background(), []string{"q1", ""})
	require.Len(t, results, 2)
	assert.Equal(t, "answer-1", results[0].SuggestedAnswer)
	assert.True(t, results[1].NeedsReview)
	assert.Empty(t, results[1].SuggestedAnswer)
	assert.NotEmpty(t, results[1].Reasoning)
}