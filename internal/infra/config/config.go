package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Chat      ChatConfig      `yaml:"chat"`
	LLM       LLMConfig       `yaml:"llm"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	ChatLog   ChatLogConfig   `yaml:"chatLog"`
	Trending  TrendingConfig  `yaml:"trending"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// ChatConfig controls the question answering pipeline.
type ChatConfig struct {
	Instruction      string        `yaml:"instruction"`
	TopK             int           `yaml:"topK"`
	MaxTopK          int           `yaml:"maxTopK"`
	MaxContextTokens int           `yaml:"maxContextTokens"`
	CallTimeout      time.Duration `yaml:"callTimeout"`
	TrendingLimit    int           `yaml:"trendingLimit"`
	LogBuffer        int           `yaml:"logBuffer"`
	LogTimeout       time.Duration `yaml:"logTimeout"`
}

// LLMConfig selects and configures the model provider.
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // openai or vertex
	APIKey         string  `yaml:"apiKey"`
	BaseURL        string  `yaml:"baseUrl"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embeddingModel"`
	Temperature    float32 `yaml:"temperature"`
	ProjectID      string  `yaml:"projectId"`
	Location       string  `yaml:"location"`
}

// KnowledgeConfig selects the retrieval store backend.
type KnowledgeConfig struct {
	Driver       string         `yaml:"driver"` // postgres, bigquery or memory
	EmbeddingDim int            `yaml:"embeddingDim"`
	Postgres     PostgresConfig `yaml:"postgres"`
	BigQuery     BigQueryConfig `yaml:"bigquery"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// BigQueryConfig contains warehouse connection settings.
type BigQueryConfig struct {
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
	LogTable string `yaml:"logTable"`
}

// ChatLogConfig selects the interaction log sink.
type ChatLogConfig struct {
	Driver string `yaml:"driver"` // postgres, bigquery or memory
}

// TrendingConfig contains connection information for usage counters.
type TrendingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// IngestConfig controls the offline ingestion job.
type IngestConfig struct {
	BatchSize int      `yaml:"batchSize"`
	S3        S3Config `yaml:"s3"`
}

// S3Config contains object storage credentials for ingestion sources.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"useSsl"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("CHAT_INSTRUCTION"); v != "" {
		cfg.Chat.Instruction = v
	}
	if v := os.Getenv("CHAT_TOP_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.TopK = parsed
		}
	}
	if v := os.Getenv("CHAT_MAX_TOP_K"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxTopK = parsed
		}
	}
	if v := os.Getenv("CHAT_MAX_CONTEXT_TOKENS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Chat.MaxContextTokens = parsed
		}
	}
	if v := os.Getenv("CHAT_CALL_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Chat.CallTimeout = parsed
		}
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("LLM_PROJECT_ID"); v != "" {
		cfg.LLM.ProjectID = v
	}
	if v := os.Getenv("LLM_LOCATION"); v != "" {
		cfg.LLM.Location = v
	}
	if v := os.Getenv("KNOWLEDGE_DRIVER"); v != "" {
		cfg.Knowledge.Driver = v
	}
	if v := os.Getenv("KNOWLEDGE_EMBEDDING_DIM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.EmbeddingDim = parsed
		}
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_DSN"); v != "" {
		cfg.Knowledge.Postgres.DSN = v
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("KNOWLEDGE_BIGQUERY_DSN"); v != "" {
		cfg.Knowledge.BigQuery.DSN = v
	}
	if v := os.Getenv("KNOWLEDGE_BIGQUERY_TABLE"); v != "" {
		cfg.Knowledge.BigQuery.Table = v
	}
	if v := os.Getenv("KNOWLEDGE_BIGQUERY_LOG_TABLE"); v != "" {
		cfg.Knowledge.BigQuery.LogTable = v
	}
	if v := os.Getenv("CHAT_LOG_DRIVER"); v != "" {
		cfg.ChatLog.Driver = v
	}
	if v := os.Getenv("TRENDING_ENABLED"); v != "" {
		cfg.Trending.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TRENDING_ADDR"); v != "" {
		cfg.Trending.Addr = v
	}
	if v := os.Getenv("INGEST_BATCH_SIZE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Ingest.BatchSize = parsed
		}
	}
	if v := os.Getenv("INGEST_S3_ENDPOINT"); v != "" {
		cfg.Ingest.S3.Endpoint = v
	}
	if v := os.Getenv("INGEST_S3_ACCESS_KEY"); v != "" {
		cfg.Ingest.S3.AccessKey = v
	}
	if v := os.Getenv("INGEST_S3_SECRET_KEY"); v != "" {
		cfg.Ingest.S3.SecretKey = v
	}
	if v := os.Getenv("INGEST_S3_BUCKET"); v != "" {
		cfg.Ingest.S3.Bucket = v
	}
	if v := os.Getenv("INGEST_S3_USE_SSL"); v != "" {
		cfg.Ingest.S3.UseSSL = v == "1" || strings.EqualFold(v, "true")
	}
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Chat: ChatConfig{
			Instruction:      "You are a helpful support assistant for a snow removal service. Answer the user's question using only the provided context. If the context does not contain the answer, say you do not know.",
			TopK:             3,
			MaxTopK:          10,
			MaxContextTokens: 1500,
			CallTimeout:      20 * time.Second,
			TrendingLimit:    10,
			LogBuffer:        64,
			LogTimeout:       5 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.2,
			Location:       "us-central1",
		},
		Knowledge: KnowledgeConfig{
			Driver:       "memory",
			EmbeddingDim: 1536,
			Postgres: PostgresConfig{
				MaxConns: 4,
				MinConns: 0,
			},
		},
		ChatLog: ChatLogConfig{
			Driver: "memory",
		},
		Trending: TrendingConfig{
			Enabled: false,
		},
		Ingest: IngestConfig{
			BatchSize: 50,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.Chat.Instruction) == "" {
		return errors.New("chat.instruction cannot be empty")
	}
	if c.Chat.TopK <= 0 {
		return errors.New("chat.topK must be positive")
	}
	if c.Chat.MaxTopK < c.Chat.TopK {
		return errors.New("chat.maxTopK cannot be below chat.topK")
	}
	if c.Chat.MaxContextTokens <= 0 {
		return errors.New("chat.maxContextTokens must be positive")
	}
	if c.Chat.CallTimeout <= 0 {
		return errors.New("chat.callTimeout must be positive")
	}
	switch c.LLM.Provider {
	case "openai":
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			return errors.New("llm.apiKey cannot be empty for the openai provider")
		}
	case "vertex":
		if strings.TrimSpace(c.LLM.ProjectID) == "" {
			return errors.New("llm.projectId cannot be empty for the vertex provider")
		}
	default:
		return fmt.Errorf("unknown llm.provider %q", c.LLM.Provider)
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if strings.TrimSpace(c.LLM.EmbeddingModel) == "" {
		return errors.New("llm.embeddingModel cannot be empty")
	}
	if c.Knowledge.EmbeddingDim <= 0 {
		return errors.New("knowledge.embeddingDim must be positive")
	}
	switch c.Knowledge.Driver {
	case "postgres":
		if strings.TrimSpace(c.Knowledge.Postgres.DSN) == "" {
			return errors.New("knowledge.postgres.dsn cannot be empty")
		}
	case "bigquery":
		if strings.TrimSpace(c.Knowledge.BigQuery.DSN) == "" {
			return errors.New("knowledge.bigquery.dsn cannot be empty")
		}
		if strings.TrimSpace(c.Knowledge.BigQuery.Table) == "" {
			return errors.New("knowledge.bigquery.table cannot be empty")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown knowledge.driver %q", c.Knowledge.Driver)
	}
	switch c.ChatLog.Driver {
	case "postgres":
		if strings.TrimSpace(c.Knowledge.Postgres.DSN) == "" {
			return errors.New("knowledge.postgres.dsn cannot be empty for the postgres log sink")
		}
	case "bigquery":
		if strings.TrimSpace(c.Knowledge.BigQuery.LogTable) == "" {
			return errors.New("knowledge.bigquery.logTable cannot be empty for the bigquery log sink")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown chatLog.driver %q", c.ChatLog.Driver)
	}
	if c.Trending.Enabled && strings.TrimSpace(c.Trending.Addr) == "" {
		return errors.New("trending.addr cannot be empty when trending is enabled")
	}
	if c.Ingest.BatchSize <= 0 {
		return errors.New("ingest.batchSize must be positive")
	}
	return nil
}
