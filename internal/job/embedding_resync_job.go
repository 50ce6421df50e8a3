package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerbase/answerbase/internal/service"
)

// EmbeddingResyncJob re-embeds pairs left behind by an embedding model
// change, a batch per run, until the whole store matches the configured
// model again.
type EmbeddingResyncJob struct {
	knowledge *service.KnowledgeService
	batchSize int
}

func NewEmbeddingResyncJob(knowledge *service.KnowledgeService, batchSize int) *EmbeddingResyncJob {
	return &EmbeddingResyncJob{knowledge: knowledge, batchSize: batchSize}
}

func (j *EmbeddingResyncJob) Name() string {
	return "embedding_resync"
}

func (j *EmbeddingResyncJob) Run(ctx context.Context) error {
	if j.knowledge == nil {
		return nil
	}
	updated, err := j.knowledge.ResyncEmbeddings(ctx, j.batchSize)
	if updated > 0 {
		logutil.GetLogger(ctx).Info("resynced stale embeddings", zap.Int("updated", updated))
	}
	return err
}
