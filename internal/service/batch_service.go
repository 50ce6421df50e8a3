package service

import (
	"context"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerbase/answerbase/internal/model"
)

// BatchService answers a whole questionnaire with a bounded worker pool.
// Results keep the input order regardless of which worker finished first, and
// one failed question never aborts the batch: its slot carries a degraded,
// review-flagged result instead.
type BatchService struct {
	answers *AnswerService
	workers int
}

func NewBatchService(answers *AnswerService, workers int) *BatchService {
	if workers <= 0 {
		workers = 4
	}
	return &BatchService{answers: answers, workers: workers}
}

// Fill answers every question and returns the results in input order plus
// the confidence summary over them.
func (s *BatchService) Fill(ctx context.Context, questions []string) ([]model.AnswerResult, model.Summary) {
	results := make([]model.AnswerResult, len(questions))
	if len(questions) == 0 {
		return results, model.Summary{}
	}

	workers := s.workers
	if workers > len(questions) {
		workers = len(questions)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.fillOne(ctx, questions[i])
			}
		}()
	}
	for i := range questions {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results, Summarize(results)
}

func (s *BatchService) fillOne(ctx context.Context, question string) model.AnswerResult {
	result, err := s.answers.Answer(ctx, question)
	if err == nil {
		return result
	}
	logutil.GetLogger(ctx).Warn("question answered in degraded mode",
		zap.String("question", question), zap.Error(err))
	if result.Question == "" {
		result.Question = question
	}
	result.NeedsReview = true
	if result.Reasoning == "" {
		result.Reasoning = "Processing failed; answer left blank for manual review."
	}
	return result
}
