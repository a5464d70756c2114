package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/snow-agent/internal/domain/chat"
	"github.com/yanqian/snow-agent/internal/infra/chatlog"
	"github.com/yanqian/snow-agent/internal/infra/config"
	"github.com/yanqian/snow-agent/internal/infra/knowledge"
	"github.com/yanqian/snow-agent/internal/infra/llm/chatgpt"
	"github.com/yanqian/snow-agent/internal/infra/llm/vertex"
	"github.com/yanqian/snow-agent/internal/infra/tokencount"
	"github.com/yanqian/snow-agent/internal/infra/trending"
)

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{
		Instruction:      cfg.Chat.Instruction,
		TopK:             cfg.Chat.TopK,
		MaxTopK:          cfg.Chat.MaxTopK,
		MaxContextTokens: cfg.Chat.MaxContextTokens,
		CallTimeout:      cfg.Chat.CallTimeout,
		TrendingLimit:    cfg.Chat.TrendingLimit,
	}
}

// llmComponents groups the embedder and generator built from one provider
// client so both share credentials and transport.
type llmComponents struct {
	embedder  chat.Embedder
	generator chat.Generator
}

func provideLLMComponents(cfg *config.Config) (*llmComponents, error) {
	switch cfg.LLM.Provider {
	case "openai":
		client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
		if err != nil {
			return nil, err
		}
		return &llmComponents{
			embedder:  chatgpt.NewEmbedder(client, cfg.LLM.EmbeddingModel),
			generator: chatgpt.NewGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature),
		}, nil
	case "vertex":
		client, err := vertex.NewClient(context.Background(), cfg.LLM.ProjectID, cfg.LLM.Location)
		if err != nil {
			return nil, err
		}
		return &llmComponents{
			embedder:  vertex.NewEmbedder(client, cfg.LLM.EmbeddingModel),
			generator: vertex.NewGenerator(client, cfg.LLM.Model, cfg.LLM.Temperature, 0),
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func provideEmbedder(c *llmComponents) chat.Embedder {
	return c.embedder
}

func provideGenerator(c *llmComponents) chat.Generator {
	return c.generator
}

func provideRetriever(cfg *config.Config, logger *slog.Logger) (chat.Retriever, error) {
	switch cfg.Knowledge.Driver {
	case "postgres":
		pool, err := newPostgresPool(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("postgres knowledge store enabled")
		return knowledge.NewPostgresStore(pool, cfg.Knowledge.EmbeddingDim), nil
	case "bigquery":
		store, err := knowledge.OpenBigQueryStore(cfg.Knowledge.BigQuery.DSN, cfg.Knowledge.BigQuery.Table, cfg.Knowledge.EmbeddingDim)
		if err != nil {
			return nil, err
		}
		logger.Info("bigquery knowledge store enabled", "table", cfg.Knowledge.BigQuery.Table)
		return store, nil
	case "memory":
		logger.Info("memory knowledge store enabled")
		return knowledge.NewMemoryStore(cfg.Knowledge.EmbeddingDim), nil
	default:
		return nil, fmt.Errorf("unknown knowledge driver %q", cfg.Knowledge.Driver)
	}
}

func provideInteractionLog(cfg *config.Config, logger *slog.Logger) (chat.InteractionLog, error) {
	switch cfg.ChatLog.Driver {
	case "postgres":
		pool, err := newPostgresPool(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("postgres chat log enabled")
		return chatlog.NewPostgresLog(pool), nil
	case "bigquery":
		sink, err := chatlog.OpenBigQueryLog(cfg.Knowledge.BigQuery.DSN, cfg.Knowledge.BigQuery.LogTable)
		if err != nil {
			return nil, err
		}
		logger.Info("bigquery chat log enabled", "table", cfg.Knowledge.BigQuery.LogTable)
		return sink, nil
	case "memory":
		return chatlog.NewMemoryLog(), nil
	default:
		return nil, fmt.Errorf("unknown chat log driver %q", cfg.ChatLog.Driver)
	}
}

func provideDispatcher(cfg *config.Config, sink chat.InteractionLog, logger *slog.Logger) *chat.LogDispatcher {
	return chat.NewLogDispatcher(sink, cfg.Chat.LogBuffer, cfg.Chat.LogTimeout, logger)
}

func provideTrendingStore(cfg *config.Config, logger *slog.Logger) chat.TrendingStore {
	if !cfg.Trending.Enabled {
		return trending.NewMemoryStore()
	}
	opt, err := buildValkeyOptions(cfg.Trending.Addr)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory store", "error", err)
		return trending.NewMemoryStore()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory store", "error", err)
		return trending.NewMemoryStore()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory store", "error", err)
		return trending.NewMemoryStore()
	}
	logger.Info("valkey trending store enabled", "addr", cfg.Trending.Addr)
	return trending.NewValkeyStore(client, "chat")
}

func provideTokenCounter(logger *slog.Logger) chat.TokenCounter {
	counter, err := tokencount.NewTiktokenCounter()
	if err != nil {
		logger.Warn("tiktoken unavailable, using heuristic token counter", "error", err)
		return tokencount.NewHeuristicCounter()
	}
	return counter
}

func newPostgresPool(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Knowledge.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	if cfg.Knowledge.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Knowledge.Postgres.MaxConns
	}
	if cfg.Knowledge.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Knowledge.Postgres.MinConns
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

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}
