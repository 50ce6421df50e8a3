package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/pgvector/pgvector-go"

	"github.com/answerbase/answerbase/internal/model"
	"github.com/answerbase/answerbase/internal/pkg/dbutil"
)

// QARepo owns the qa_pairs table: the knowledge store and, through
// SearchSimilar, the similarity index over it. Searches run against the same
// rows inserts commit to, so a completed write is visible to the next search.
type QARepo struct {
	db *sql.DB
}

func NewQARepo(db *sql.DB) *QARepo {
	return &QARepo{db: db}
}

// SimilarPair is a search hit with its raw cosine similarity in [-1, 1].
type SimilarPair struct {
	Question   string
	Answer     string
	SourceFile string
	Cosine     float64
}

// InsertBatch writes all pairs of one uploaded source in a single multi-row
// insert, so the batch lands atomically: all pairs or none.
func (r *QARepo) InsertBatch(ctx context.Context, pairs []model.QAPair) error {
	if len(pairs) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, map[string]interface{}{
			"question":        p.Question,
			"answer":          p.Answer,
			"source_file":     p.SourceFile,
			"embedding":       pgvector.NewVector(p.Embedding),
			"embedding_model": p.EmbeddingModel,
			"created_at":      p.CreatedAt,
		})
	}
	sqlStr, args, err := builder.BuildInsert("qa_pairs", rows)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, dbutil.Rebind(sqlStr), args...)
	return err
}

// DeleteBySource removes every pair of one source file and reports how many
// rows went away.
func (r *QARepo) DeleteBySource(ctx context.Context, sourceFile string) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("qa_pairs", map[string]interface{}{
		"source_file": sourceFile,
	})
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, dbutil.Rebind(sqlStr), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *QARepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM qa_pairs`)
	return err
}

func (r *QARepo) ListAll(ctx context.Context) ([]model.QAPair, error) {
	const query = `
		SELECT id, question, answer, source_file, embedding, embedding_model, created_at
		FROM qa_pairs
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []model.QAPair
	for rows.Next() {
		var p model.QAPair
		var emb pgvector.Vector
		if err := rows.Scan(&p.ID, &p.Question, &p.Answer, &p.SourceFile, &emb, &p.EmbeddingModel, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Embedding = emb.Slice()
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (r *QARepo) ListSources(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT source_file FROM qa_pairs ORDER BY source_file`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sources []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (r *QARepo) Stats(ctx context.Context) (model.KnowledgeStats, error) {
	const query = `SELECT COUNT(*), COUNT(DISTINCT source_file) FROM qa_pairs`
	var stats model.KnowledgeStats
	err := r.db.QueryRowContext(ctx, query).Scan(&stats.TotalQAPairs, &stats.SourceFiles)
	return stats, err
}

// SearchSimilar returns the k nearest pairs by cosine distance, closest
// first; equal distances rank newer pairs higher so results stay
// deterministic. An empty table yields an empty slice.
func (r *QARepo) SearchSimilar(ctx context.Context, embedding []float32, k int) ([]SimilarPair, error) {
	const query = `
		SELECT question, answer, source_file, 1 - (embedding <=> $1) AS cosine
		FROM qa_pairs
		ORDER BY embedding <=> $1, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []SimilarPair
	for rows.Next() {
		var m SimilarPair
		if err := rows.Scan(&m.Question, &m.Answer, &m.SourceFile, &m.Cosine); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListStale returns pairs whose stored embedding came from a different model
// than the one currently configured.
func (r *QARepo) ListStale(ctx context.Context, modelName string, limit int) ([]model.QAPair, error) {
	const query = `
		SELECT id, question FROM qa_pairs
		WHERE embedding_model <> $1
		ORDER BY id
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, modelName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []model.QAPair
	for rows.Next() {
		var p model.QAPair
		if err := rows.Scan(&p.ID, &p.Question); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (r *QARepo) UpdateEmbedding(ctx context.Context, id int64, embedding []float32, modelName string) error {
	const query = `UPDATE qa_pairs SET embedding = $1, embedding_model = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), modelName, id)
	return err
}
