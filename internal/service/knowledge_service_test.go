package service

import (
	"context"
	"database/sql"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/answerbase/answerbase/internal/ai"
	"github.com/answerbase/answerbase/internal/config"
	"github.com/answerbase/answerbase/internal/db"
	"github.com/answerbase/answerbase/internal/filestore"
	"github.com/answerbase/answerbase/internal/model"
	"github.com/answerbase/answerbase/internal/parser"
	apperr "github.com/answerbase/answerbase/internal/pkg/errors"
	"github.com/answerbase/answerbase/internal/repo"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "answerbase",
		Password: "answerbase_pass",
		DBName:   "answerbase_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	_, err = conn.Exec(`TRUNCATE qa_pairs, embedding_cache`)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func newTestKnowledgeService(t *testing.T) (*KnowledgeService, *repo.QARepo) {
	t.Helper()
	conn := openTestDB(t)
	qaRepo := repo.NewQARepo(conn)

	embedProvider, err := ai.NewEmbedProvider("hash", nil)
	require.NoError(t, err)
	embedder := ai.NewEmbedder(embedProvider, "")

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	svc := NewKnowledgeService(qaRepo, embedder, parser.New(nil, 0), store, 5*time.Second)
	return svc, qaRepo
}

func TestImportDocumentRoundTrip(t *testing.T) {
	svc, qaRepo := newTestKnowledgeService(t)
	ctx := context.Background()

	content := []byte("Question,Answer\n" +
		"What is your data retention policy?,We retain data for 7 years.\n" +
		"Do you encrypt data at rest?,Yes.\n")
	count, err := svc.ImportDocument(ctx, "policy.csv", content)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalQAPairs)
	assert.Equal(t, 1, stats.SourceFiles)

	sources, err := svc.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"policy.csv"}, sources)

	embedProvider, err := ai.NewEmbedProvider("hash", nil)
	require.NoError(t, err)
	query, err := embedProvider.Embed(ctx, "", "what is the policy on data retention", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	hits, err := qaRepo.SearchSimilar(ctx, query, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "What is your data retention policy?", hits[0].Question)

	deleted, err := svc.DeleteSource(ctx, "policy.csv")
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalQAPairs)
}

func TestImportDocumentNoPairs(t *testing.T) {
	svc, _ := newTestKnowledgeService(t)
	_, err := svc.ImportDocument(context.Background(), "empty.csv", []byte("Question,Answer\n"))
	assert.True(t, apperr.IsInvalid(err))
}

func TestAddPairAndDeleteSource(t *testing.T) {
	svc, _ := newTestKnowledgeService(t)
	ctx := context.Background()

	err := svc.AddPair(ctx, "Do you have SOC 2?", "Yes, Type II.", "")
	require.NoError(t, err)

	sources, err := svc.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"manual"}, sources)

	deleted, err := svc.DeleteSource(ctx, "manual")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = svc.DeleteSource(ctx, "manual")
	assert.True(t, apperr.IsNotFound(err))
}

func TestAddPairValidation(t *testing.T) {
	svc, _ := newTestKnowledgeService(t)
	err := svc.AddPair(context.Background(), "", "answer", "")
	assert.True(t, apperr.IsInvalid(err))
}

func TestOpenSourceFileReturnsArchivedUpload(t *testing.T) {
	svc, _ := newTestKnowledgeService(t)
	ctx := context.Background()

	content := []byte("Question,Answer\nDo you encrypt data?,Yes.\n")
	_, err := svc.ImportDocument(ctx, "upload.csv", content)
	require.NoError(t, err)

	rc, err := svc.OpenSourceFile(ctx, "upload.csv")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = svc.OpenSourceFile(ctx, "missing.csv")
	assert.True(t, apperr.IsNotFound(err))
}

func TestSourceFileURL(t *testing.T) {
	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir":        t.TempDir(),
			"public_url": "https://files.example.com/",
		},
	})
	require.NoError(t, err)
	svc := NewKnowledgeService(nil, nil, nil, store, 0)

	assert.Equal(t, "https://files.example.com/policy.csv", svc.SourceFileURL("policy.csv"))
	assert.Equal(t, "https://files.example.com/passwd", svc.SourceFileURL("../etc/passwd"))
	assert.Empty(t, svc.SourceFileURL("  "))

	bare := NewKnowledgeService(nil, nil, nil, nil, 0)
	assert.Empty(t, bare.SourceFileURL("policy.csv"))
}

func TestResyncEmbeddings(t *testing.T) {
	svc, qaRepo := newTestKnowledgeService(t)
	ctx := context.Background()

	require.NoError(t, qaRepo.InsertBatch(ctx, []model.QAPair{{
		Question:       "Do you encrypt data?",
		Answer:         "Yes.",
		SourceFile:     "old.csv",
		Embedding:      []float32{1, 0, 0},
		EmbeddingModel: "legacy-model",
		CreatedAt:      time.Now().Unix(),
	}}))

	updated, err := svc.ResyncEmbeddings(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	updated, err = svc.ResyncEmbeddings(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, updated)
}
