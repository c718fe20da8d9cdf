package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "employees", cfg.Database.Table)
	assert.Equal(t, 10*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2.0, cfg.LLM.RequestsPerSecond)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	assert.Equal(t, 45*time.Second, cfg.Fusion.BranchTimeout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
database:
  driver: sqlite
  dsn: /tmp/hr.db
  id_column: badge
llm:
  provider: gemini
  model: gemini-2.0-flash
retrieval:
  top_k: 4
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("HRA_SERVER__PORT", "9200")
	t.Setenv("HRA_DATABASE__STATEMENT_TIMEOUT", "3s")
	t.Setenv("HRA_FUSION__BRANCH_TIMEOUT", "500ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/hr.db", cfg.Database.DSN)
	assert.Equal(t, "badge", cfg.Database.IDColumn)
	assert.Equal(t, 3*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Key())
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, 500*time.Millisecond, cfg.Fusion.BranchTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hr@localhost/hr?sslmode=disable")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("RETRIEVAL_URL", "http://policies:8000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://hr@localhost/hr?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, "sk-test", cfg.LLM.Key())
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "http://policies:8000", cfg.Retrieval.URL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database:  DatabaseConfig{Driver: "mysql"},
		LLM:       LLMConfig{Provider: "claude"},
		Retrieval: RetrievalConfig{TopK: 0},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"database.driver", "database.dsn", "llm.provider", "no api key", "top_k"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLLMConfig_Key(t *testing.T) {
	assert.Equal(t, "explicit", LLMConfig{APIKey: "explicit", OpenAIAPIKey: "o"}.Key())
	assert.Equal(t, "o", LLMConfig{Provider: "openai", OpenAIAPIKey: "o", GeminiAPIKey: "g"}.Key())
	assert.Equal(t, "g", LLMConfig{Provider: "gemini", OpenAIAPIKey: "o", GeminiAPIKey: "g"}.Key())
}
