package job

import (
	"context"
	"time"

	"github.com/answerbase/answerbase/internal/repo"
)

// EmbeddingCacheCleanupJob expires cached embeddings older than the
// configured retention.
type EmbeddingCacheCleanupJob struct {
	cache    *repo.EmbeddingCacheRepo
	keepDays int
}

func NewEmbeddingCacheCleanupJob(cache *repo.EmbeddingCacheRepo, keepDays int) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{cache: cache, keepDays: keepDays}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil {
		return nil
	}
	keepDays := j.keepDays
	if keepDays <= 0 {
		keepDays = 30
	}
	cutoff := time.Now().Add(-time.Duration(keepDays) * 24 * time.Hour).Unix()
	_, err := j.cache.DeleteBefore(ctx, cutoff)
	return err
}
