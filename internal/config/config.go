package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Batch         BatchConfig      `json:"batch"`
	Jobs          JobsConfig       `json:"jobs"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	MaxUploadSize int64            `json:"max_upload_size"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Provider       string      `json:"provider"`
	Data           interface{} `json:"data"`
	Model          string      `json:"model"`
	EmbedProvider  string      `json:"embed_provider"`
	EmbedData      interface{} `json:"embed_data"`
	EmbedModel     string      `json:"embed_model"`
	TimeoutSeconds int         `json:"timeout_seconds"`
	MaxInputChars  int         `json:"max_input_chars"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type BatchConfig struct {
	Workers int `json:"workers"`
	TopK    int `json:"top_k"`
}

type JobsConfig struct {
	EmbeddingResyncSpec string `json:"embedding_resync_spec"`
	ResyncBatchSize     int    `json:"resync_batch_size"`
	CacheCleanupSpec    string `json:"cache_cleanup_spec"`
	CacheKeepDays       int    `json:"cache_keep_days"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Host != "" && cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = "hash"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.MaxInputChars == 0 {
		cfg.AI.MaxInputChars = 50000
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": "./data/uploads"}
	}
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = 4
	}
	if cfg.Batch.TopK == 0 {
		cfg.Batch.TopK = 5
	}
	if cfg.Jobs.EmbeddingResyncSpec == "" {
		cfg.Jobs.EmbeddingResyncSpec = "*/10 * * * *"
	}
	if cfg.Jobs.ResyncBatchSize == 0 {
		cfg.Jobs.ResyncBatchSize = 50
	}
	if cfg.Jobs.CacheCleanupSpec == "" {
		cfg.Jobs.CacheCleanupSpec = "0 3 * * *"
	}
	if cfg.Jobs.CacheKeepDays == 0 {
		cfg.Jobs.CacheKeepDays = 30
	}
	if cfg.MaxUploadSize == 0 {
		cfg.MaxUploadSize = 10 << 20
	}
	return &cfg, nil
}
