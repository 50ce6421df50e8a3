package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/answerbase/answerbase/internal/ai"
	"github.com/answerbase/answerbase/internal/config"
	"github.com/answerbase/answerbase/internal/db"
	"github.com/answerbase/answerbase/internal/embedcache"
	"github.com/answerbase/answerbase/internal/exporter"
	"github.com/answerbase/answerbase/internal/filestore"
	"github.com/answerbase/answerbase/internal/handler"
	"github.com/answerbase/answerbase/internal/job"
	"github.com/answerbase/answerbase/internal/middleware"
	"github.com/answerbase/answerbase/internal/parser"
	"github.com/answerbase/answerbase/internal/repo"
	"github.com/answerbase/answerbase/internal/schedule"
	"github.com/answerbase/answerbase/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "answerbase",
		Short: "answerbase questionnaire answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run answerbase server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("embed_provider", cfg.AI.EmbedProvider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	qaRepo := repo.NewQARepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)

	aiProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, cfg.AI.EmbedData)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	embedder := embedcache.WrapLRU(
		embedcache.WrapDB(ai.NewEmbedder(embedProvider, cfg.AI.EmbedModel), cacheRepo),
		2048, time.Hour,
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	timeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second
	docParser := parser.New(generator, cfg.AI.MaxInputChars)
	knowledgeService := service.NewKnowledgeService(qaRepo, embedder, docParser, store, timeout)
	answerService := service.NewAnswerService(qaRepo, embedder, generator, service.ConfidenceScorer{}, cfg.Batch.TopK, timeout)
	batchService := service.NewBatchService(answerService, cfg.Batch.Workers)

	deps := handler.RouterDeps{
		Knowledge: handler.NewKnowledgeHandler(knowledgeService, cfg.MaxUploadSize),
		Answers:   handler.NewAnswerHandler(answerService, batchService, docParser, cfg.MaxUploadSize),
		Export:    handler.NewExportHandler(exporter.New(), cfg.MaxUploadSize),
	}

	engine, err := webapi.NewEngine(
		"/",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewEmbeddingResyncJob(knowledgeService, cfg.Jobs.ResyncBatchSize), cfg.Jobs.EmbeddingResyncSpec); err != nil {
		return err
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Jobs.CacheKeepDays), cfg.Jobs.CacheCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
