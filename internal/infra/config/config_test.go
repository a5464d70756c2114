package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValidWithAPIKey(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.APIKey = "key"
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 3, cfg.Chat.TopK)
	require.Equal(t, "memory", cfg.Knowledge.Driver)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing openai key", func(c *Config) { c.LLM.APIKey = "" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "other" }},
		{"vertex without project", func(c *Config) { c.LLM.Provider = "vertex"; c.LLM.ProjectID = "" }},
		{"zero topK", func(c *Config) { c.Chat.TopK = 0 }},
		{"maxTopK below topK", func(c *Config) { c.Chat.MaxTopK = 1; c.Chat.TopK = 5 }},
		{"zero context budget", func(c *Config) { c.Chat.MaxContextTokens = 0 }},
		{"zero call timeout", func(c *Config) { c.Chat.CallTimeout = 0 }},
		{"postgres without dsn", func(c *Config) { c.Knowledge.Driver = "postgres" }},
		{"bigquery without table", func(c *Config) { c.Knowledge.Driver = "bigquery"; c.Knowledge.BigQuery.DSN = "x" }},
		{"unknown knowledge driver", func(c *Config) { c.Knowledge.Driver = "sqlite" }},
		{"unknown log driver", func(c *Config) { c.ChatLog.Driver = "kafka" }},
		{"trending without addr", func(c *Config) { c.Trending.Enabled = true }},
		{"zero batch size", func(c *Config) { c.Ingest.BatchSize = 0 }},
		{"empty instruction", func(c *Config) { c.Chat.Instruction = "  " }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.LLM.APIKey = "key"
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9999")
	t.Setenv("CHAT_TOP_K", "7")
	t.Setenv("CHAT_CALL_TIMEOUT", "45s")
	t.Setenv("LLM_PROVIDER", "vertex")
	t.Setenv("LLM_PROJECT_ID", "my-project")
	t.Setenv("KNOWLEDGE_DRIVER", "postgres")
	t.Setenv("KNOWLEDGE_POSTGRES_DSN", "postgres://localhost/faq")
	t.Setenv("TRENDING_ENABLED", "true")
	t.Setenv("TRENDING_ADDR", "localhost:6379")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	require.Equal(t, ":9999", cfg.HTTP.Address)
	require.Equal(t, 7, cfg.Chat.TopK)
	require.Equal(t, 45*time.Second, cfg.Chat.CallTimeout)
	require.Equal(t, "vertex", cfg.LLM.Provider)
	require.Equal(t, "my-project", cfg.LLM.ProjectID)
	require.Equal(t, "postgres", cfg.Knowledge.Driver)
	require.True(t, cfg.Trending.Enabled)
	require.Equal(t, "localhost:6379", cfg.Trending.Addr)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesIgnoreUnparsable(t *testing.T) {
	t.Setenv("CHAT_TOP_K", "not-a-number")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	require.Equal(t, 3, cfg.Chat.TopK)
}
