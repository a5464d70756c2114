package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	"github.com/yanqian/snow-agent/internal/infra/config"
	"github.com/yanqian/snow-agent/internal/infra/knowledge"
	"github.com/yanqian/snow-agent/internal/infra/llm/chatgpt"
	"github.com/yanqian/snow-agent/internal/infra/llm/vertex"
	"github.com/yanqian/snow-agent/internal/infra/source"
	"github.com/yanqian/snow-agent/internal/ingest"
	"github.com/yanqian/snow-agent/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		filePath = flag.String("file", "", "path to a local CSV file with question,answer rows")
		s3Key    = flag.String("s3-key", "", "object key of a CSV file in the configured bucket")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logg := logger.New()

	src, err := buildSource(cfg, *filePath, *s3Key)
	if err != nil {
		log.Fatalf("failed to build source: %v", err)
	}
	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to build embedder: %v", err)
	}
	writer, err := buildWriter(cfg)
	if err != nil {
		log.Fatalf("failed to build knowledge writer: %v", err)
	}

	loader := ingest.NewLoader(src, embedder, writer, cfg.Ingest.BatchSize, logg)
	written, err := loader.Run(ctx)
	if err != nil {
		log.Fatalf("ingestion failed after %d records: %v", written, err)
	}
	logg.Info("ingestion finished", "records", written)
}

func buildSource(cfg *config.Config, filePath, s3Key string) (ingest.Source, error) {
	switch {
	case filePath != "" && s3Key != "":
		return nil, fmt.Errorf("pass either -file or -s3-key, not both")
	case filePath != "":
		return source.NewLocalFile(filePath), nil
	case s3Key != "":
		return source.NewS3Object(cfg.Ingest.S3.Endpoint, cfg.Ingest.S3.AccessKey, cfg.Ingest.S3.SecretKey, cfg.Ingest.S3.Bucket, s3Key)
	default:
		return nil, fmt.Errorf("one of -file or -s3-key is required")
	}
}

func buildEmbedder(ctx context.Context, cfg *config.Config) (chat.Embedder, error) {
	switch cfg.LLM.Provider {
	case "openai":
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
		if err != nil {
			return nil, err
		}
		return chatgpt.NewEmbedder(client, cfg.LLM.EmbeddingModel), nil
	case "vertex":
		client, err := vertex.NewClient(ctx, cfg.LLM.ProjectID, cfg.LLM.Location)
		if err != nil {
			return nil, err
		}
		return vertex.NewEmbedder(client, cfg.LLM.EmbeddingModel), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func buildWriter(cfg *config.Config) (ingest.KnowledgeWriter, error) {
	switch cfg.Knowledge.Driver {
	case "postgres":
		pool, err := newPostgresPool(cfg)
		if err != nil {
			return nil, err
		}
		return knowledge.NewPostgresStore(pool, cfg.Knowledge.EmbeddingDim), nil
	case "bigquery":
		return knowledge.OpenBigQueryStore(cfg.Knowledge.BigQuery.DSN, cfg.Knowledge.BigQuery.Table, cfg.Knowledge.EmbeddingDim)
	default:
		return nil, fmt.Errorf("knowledge driver %q does not support ingestion", cfg.Knowledge.Driver)
	}
}

func newPostgresPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Knowledge.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.Knowledge.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Knowledge.Postgres.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres pool: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}
