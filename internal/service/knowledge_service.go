package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerbase/answerbase/internal/ai"
	"github.com/answerbase/answerbase/internal/filestore"
	"github.com/answerbase/answerbase/internal/model"
	"github.com/answerbase/answerbase/internal/parser"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
	"github.com/answerbase/answerbase/internal/repo"
)

const defaultSource = "manual"

// KnowledgeService manages the question/answer knowledge base: document
// import, manual pairs, source listing and deletion. All embeddings for a
// batch are computed before anything is written, so a partial import never
// reaches the store.
type KnowledgeService struct {
	pairs    *repo.QARepo
	embedder ai.IEmbedder
	parser   *parser.DocumentParser
	archive  filestore.Store
	timeout  time.Duration
}

func NewKnowledgeService(pairs *repo.QARepo, embedder ai.IEmbedder, p *parser.DocumentParser, archive filestore.Store, timeout time.Duration) *KnowledgeService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &KnowledgeService{
		pairs:    pairs,
		embedder: embedder,
		parser:   p,
		archive:  archive,
		timeout:  timeout,
	}
}

// ImportDocument parses the uploaded document, embeds every extracted
// question and commits the batch in one insert. Re-uploading a file with the
// same name appends to its pairs; callers delete the source first to replace
// it. Returns how many pairs were added.
func (s *KnowledgeService) ImportDocument(ctx context.Context, filename string, content []byte) (int, error) {
	extracted, err := s.parser.Parse(ctx, filename, content, false)
	if err != nil {
		return 0, err
	}
	if len(extracted) == 0 {
		return 0, fmt.Errorf("%w: no question/answer pairs found in document", apperr.ErrInvalid)
	}

	sourceFile := filepath.Base(filename)
	rows, err := s.buildPairs(ctx, sourceFile, extracted)
	if err != nil {
		return 0, err
	}
	if err := s.pairs.InsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("store pairs: %w", err)
	}
	s.archiveDocument(ctx, sourceFile, content)
	return len(rows), nil
}

// AddPair stores a single manually entered pair. An empty source is recorded
// under the shared manual bucket.
func (s *KnowledgeService) AddPair(ctx context.Context, question, answer, source string) error {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return fmt.Errorf("%w: question and answer are required", apperr.ErrInvalid)
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = defaultSource
	}
	embedding, err := s.embed(ctx, question)
	if err != nil {
		return err
	}
	pair := model.QAPair{
		Question:       question,
		Answer:         answer,
		SourceFile:     source,
		Embedding:      embedding,
		EmbeddingModel: s.embedder.ModelName(),
		CreatedAt:      time.Now().Unix(),
	}
	return s.pairs.InsertBatch(ctx, []model.QAPair{pair})
}

// DeleteSource removes every pair imported from the named file and reports
// how many were deleted.
func (s *KnowledgeService) DeleteSource(ctx context.Context, sourceFile string) (int64, error) {
	sourceFile = strings.TrimSpace(sourceFile)
	if sourceFile == "" {
		return 0, fmt.Errorf("%w: source file is required", apperr.ErrInvalid)
	}
	deleted, err := s.pairs.DeleteBySource(ctx, sourceFile)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: source file: %s", apperr.ErrNotFound, sourceFile)
	}
	return deleted, nil
}

func (s *KnowledgeService) ClearAll(ctx context.Context) error {
	return s.pairs.DeleteAll(ctx)
}

func (s *KnowledgeService) Sources(ctx context.Context) ([]string, error) {
	return s.pairs.ListSources(ctx)
}

func (s *KnowledgeService) Stats(ctx context.Context) (model.KnowledgeStats, error) {
	return s.pairs.Stats(ctx)
}

func (s *KnowledgeService) ListAll(ctx context.Context) ([]model.QAPair, error) {
	return s.pairs.ListAll(ctx)
}

// SourceFileURL returns a direct download link for the archived original, or
// empty when the store only serves content by streaming.
func (s *KnowledgeService) SourceFileURL(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || s.archive == nil {
		return ""
	}
	return s.archive.URL(name)
}

// OpenSourceFile streams the archived original of an imported document.
func (s *KnowledgeService) OpenSourceFile(ctx context.Context, name string) (io.ReadCloser, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return nil, fmt.Errorf("%w: source file is required", apperr.ErrInvalid)
	}
	rc, err := s.archive.Open(ctx, name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: archived source: %s", apperr.ErrNotFound, name)
		}
		return nil, fmt.Errorf("open archived source %s: %w", name, err)
	}
	return rc, nil
}

// ResyncEmbeddings re-embeds pairs whose stored vector came from a model
// other than the configured one. Returns how many pairs were updated.
func (s *KnowledgeService) ResyncEmbeddings(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	modelName := s.embedder.ModelName()
	stale, err := s.pairs.ListStale(ctx, modelName, batchSize)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, p := range stale {
		embedding, err := s.embed(ctx, p.Question)
		if err != nil {
			return updated, err
		}
		if err := s.pairs.UpdateEmbedding(ctx, p.ID, embedding, modelName); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// buildPairs embeds all questions up front and checks that every vector has
// the same dimensionality before any row is written.
func (s *KnowledgeService) buildPairs(ctx context.Context, sourceFile string, extracted []model.ExtractedQA) ([]model.QAPair, error) {
	now := time.Now().Unix()
	modelName := s.embedder.ModelName()
	rows := make([]model.QAPair, 0, len(extracted))
	dim := 0
	for _, qa := range extracted {
		embedding, err := s.embed(ctx, qa.Question)
		if err != nil {
			return nil, err
		}
		if dim == 0 {
			dim = len(embedding)
		} else if len(embedding) != dim {
			return nil, fmt.Errorf("%w: embedding dimension changed within batch: %d vs %d", apperr.ErrConsistency, len(embedding), dim)
		}
		rows = append(rows, model.QAPair{
			Question:       qa.Question,
			Answer:         qa.Answer,
			SourceFile:     sourceFile,
			Embedding:      embedding,
			EmbeddingModel: modelName,
			CreatedAt:      now,
		})
	}
	return rows, nil
}

func (s *KnowledgeService) embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: cannot embed empty text", apperr.ErrInvalid)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	embedding, err := s.embedder.Embed(ctx, text, "RETRIEVAL_DOCUMENT")
	if err != nil {
		return nil, fmt.Errorf("%w: embed: %v", apperr.ErrProvider, err)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: embed returned empty vector", apperr.ErrProvider)
	}
	return embedding, nil
}

// archiveDocument keeps the original upload for later download. Archive
// failures only log; the pairs are already committed.
func (s *KnowledgeService) archiveDocument(ctx context.Context, key string, content []byte) {
	if s.archive == nil {
		return
	}
	file := byteFile{bytes.NewReader(content)}
	if err := s.archive.Save(ctx, key, file, int64(len(content))); err != nil {
		logutil.GetLogger(ctx).Warn("archive source document failed",
			zap.String("file", key), zap.Error(err))
	}
}

type byteFile struct {
	*bytes.Reader
}

func (byteFile) Close() error { return nil }
