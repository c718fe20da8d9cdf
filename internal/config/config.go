package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "HRA_"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	LLM       LLMConfig       `koanf:"llm"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Fusion    FusionConfig    `koanf:"fusion"`
}

type ServerConfig struct {
	Port string `koanf:"port"`
}

type LogConfig struct {
	Level       string `koanf:"level"`
	Development bool   `koanf:"development"`
}

type DatabaseConfig struct {
	Driver           string        `koanf:"driver"`
	DSN              string        `koanf:"dsn"`
	Table            string        `koanf:"table"`
	IDColumn         string        `koanf:"id_column"`
	StatementTimeout time.Duration `koanf:"statement_timeout"`
	Migrate          bool          `koanf:"migrate"`
}

type LLMConfig struct {
	Provider          string        `koanf:"provider"`
	APIKey            string        `koanf:"api_key"`
	OpenAIAPIKey      string        `koanf:"openai_api_key"`
	GeminiAPIKey      string        `koanf:"gemini_api_key"`
	Model             string        `koanf:"model"`
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
}

// Key returns the explicit api_key, falling back to the provider's own key.
func (c LLMConfig) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.Provider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

type RetrievalConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	TopK    int           `koanf:"top_k"`
	Timeout time.Duration `koanf:"timeout"`
}

type FusionConfig struct {
	BranchTimeout time.Duration `koanf:"branch_timeout"`
}

var defaults = map[string]any{
	"server.port":                "8080",
	"log.level":                  "info",
	"log.development":            false,
	"database.driver":            "postgres",
	"database.table":             "employees",
	"database.statement_timeout": "10s",
	"database.migrate":           false,
	"llm.provider":               "openai",
	"llm.timeout":                "30s",
	"llm.requests_per_second":    2.0,
	"llm.burst":                  4,
	"retrieval.top_k":            6,
	"retrieval.timeout":          "10s",
	"fusion.branch_timeout":      "45s",
}

// Environment names used by earlier deployments.
var legacyEnv = map[string]string{
	"PORT":           "server.port",
	"DATABASE_URL":   "database.dsn",
	"OPENAI_API_KEY": "llm.openai_api_key",
	"OPENAI_MODEL":   "llm.model",
	"GEMINI_API_KEY": "llm.gemini_api_key",
	"RETRIEVAL_URL":  "retrieval.url",
}

// Load reads configuration from defaults, then cfgFile (if any), then the
// environment. A .env file in the working directory is loaded first.
// Precedence (highest to lowest): HRA_ env > legacy env > file > defaults
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// HRA_DATABASE__STATEMENT_TIMEOUT -> database.statement_timeout
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is not set (DATABASE_URL)"))
	}

	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be openai or gemini, got %q", c.LLM.Provider))
	}
	if c.LLM.Key() == "" {
		errs = append(errs, fmt.Errorf("no api key for llm provider %q", c.LLM.Provider))
	}

	if c.Retrieval.TopK <= 0 {
		errs = append(errs, errors.New("retrieval.top_k must be positive"))
	}

	return errors.Join(errs...)
}
