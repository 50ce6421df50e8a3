package service

import "github.com/answerbase/answerbase/internal/model"

// Confidence bands shared with the UI. 80/50 are contract values.
const (
	HighConfidence = 80
	LowConfidence  = 50
)

const (
	nearDuplicate    = 90
	scoreTopK        = 5
	defaultReviewGap = 25

	topWeight       = 0.7
	agreementWeight = 0.3
)

// ConfidenceScorer converts the similarity distribution of the retrieved
// matches into a 0-100 confidence and a review flag. Pure: the same match
// set always produces the same score.
//
// A near-duplicate top match (>= 90) tracks the top similarity directly.
// Below that the score blends the top similarity with the mean of the top
// matches, so one strong hit surrounded by unrelated ones scores lower than
// a tight cluster of agreeing answers.
type ConfidenceScorer struct {
	// ReviewGap forces review on medium-band answers whose top match stands
	// this far above the rest of the set. Zero or negative uses the default.
	ReviewGap int
}

func (s ConfidenceScorer) Score(matches []model.MatchResult) (int, bool) {
	if len(matches) == 0 {
		return 0, true
	}
	top := matches[0].Similarity
	if top >= nearDuplicate {
		return top, false
	}

	n := len(matches)
	if n > scoreTopK {
		n = scoreTopK
	}
	sum := 0
	for _, m := range matches[:n] {
		sum += m.Similarity
	}
	mean := float64(sum) / float64(n)
	confidence := int(topWeight*float64(top) + agreementWeight*mean + 0.5)
	if confidence > 100 {
		confidence = 100
	}
	if confidence < 0 {
		confidence = 0
	}

	gap := s.ReviewGap
	if gap <= 0 {
		gap = defaultReviewGap
	}
	needsReview := confidence < LowConfidence ||
		(confidence < HighConfidence && float64(top)-mean > float64(gap))
	return confidence, needsReview
}

func Summarize(results []model.AnswerResult) model.Summary {
	var summary model.Summary
	for _, r := range results {
		switch {
		case r.Confidence >= HighConfidence:
			summary.HighConfidence++
		case r.Confidence >= LowConfidence:
			summary.MediumConfidence++
		default:
			summary.LowConfidence++
		}
		if r.NeedsReview {
			summary.NeedsReview++
		}
	}
	return summary
}
