package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/answerbase/answerbase/internal/model"
)

func matchesWith(sims ...int) []model.MatchResult {
	out := make([]model.MatchResult, 0, len(sims))
	for _, s := range sims {
		out = append(out, model.MatchResult{Similarity: s})
	}
	return out
}

func TestScoreNoMatches(t *testing.T) {
	conf, review := ConfidenceScorer{}.Score(nil)
	assert.Equal(t, 0, conf)
	assert.True(t, review)
}

func TestScoreNearDuplicate(t *testing.T) {
	conf, review := ConfidenceScorer{}.Score(matchesWith(95, 40, 30))
	assert.Equal(t, 95, conf)
	assert.False(t, review)

	conf, review = ConfidenceScorer{}.Score(matchesWith(90))
	assert.Equal(t, 90, conf)
	assert.False(t, review)
}

func TestScoreBlendsTopWithAgreement(t *testing.T) {
	// 0.7*85 + 0.3*mean(85,80,75) = 59.5 + 24 = 83.5 -> 84
	conf, review := ConfidenceScorer{}.Score(matchesWith(85, 80, 75))
	assert.Equal(t, 84, conf)
	assert.False(t, review)
}

func TestScoreLowBandNeedsReview(t *testing.T) {
	conf, review := ConfidenceScorer{}.Score(matchesWith(45, 40))
	assert.Less(t, conf, LowConfidence)
	assert.True(t, review)
}

func TestScoreMediumBandGapForcesReview(t *testing.T) {
	// 0.7*85 + 0.3*mean(85,30,25) = 59.5 + 14 = 73.5 -> 74, top-mean ~38
	conf, review := ConfidenceScorer{}.Score(matchesWith(85, 30, 25))
	assert.GreaterOrEqual(t, conf, LowConfidence)
	assert.Less(t, conf, HighConfidence)
	assert.True(t, review)
}

func TestScoreMonotonicInTopSimilarity(t *testing.T) {
	scorer := ConfidenceScorer{}
	prev := -1
	for top := 0; top <= 100; top += 5 {
		conf, _ := scorer.Score(matchesWith(top, top/2))
		assert.GreaterOrEqual(t, conf, prev, "top=%d", top)
		prev = conf
	}
}

func TestScoreUsesAtMostFiveMatches(t *testing.T) {
	base := matchesWith(70, 70, 70, 70, 70)
	padded := matchesWith(70, 70, 70, 70, 70, 1, 1, 1)
	confBase, _ := ConfidenceScorer{}.Score(base)
	confPadded, _ := ConfidenceScorer{}.Score(padded)
	assert.Equal(t, confBase, confPadded)
}

func TestSummarize(t *testing.T) {
	results := []model.AnswerResult{
		{Confidence: 95},
		{Confidence: 80},
		{Confidence: 79, NeedsReview: true},
		{Confidence: 50, NeedsReview: true},
		{Confidence: 10, NeedsReview: true},
	}
	summary := Summarize(results)
	assert.Equal(t, 2, summary.HighConfidence)
	assert.Equal(t, 2, summary.MediumConfidence)
	assert.Equal(t, 1, summary.LowConfidence)
	assert.Equal(t, 3, summary.NeedsReview)
}
