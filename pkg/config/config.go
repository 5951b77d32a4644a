package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for askdb-engine.
// Configuration comes from a YAML file (config.yaml) with environment
// variable overrides. Secrets (API keys, passwords) must only come from
// environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	LLM        LLMConfig        `yaml:"llm"`
	Datasource DatasourceConfig `yaml:"datasource"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
}

// LLMConfig holds language-model backend settings.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	// Endpoint overrides the provider's default base URL. Leave empty for
	// the hosted APIs; set for local or proxy endpoints.
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4-turbo"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// DatasourceConfig selects and configures the database the engine queries.
type DatasourceConfig struct {
	// Type is the adapter type: "sqlite", "postgres" or "sqlserver".
	Type string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"sqlite"`

	// SQLitePath is the database file for the sqlite adapter.
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"sales.db"`

	// Network adapter settings (postgres / sqlserver).
	Host     string `yaml:"host" env:"DSHOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DSPORT" env-default:"5432"`
	User     string `yaml:"user" env:"DSUSER" env-default:""`
	Password string `yaml:"-" env:"DSPASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"DSDATABASE" env-default:""`
	SSLMode  string `yaml:"ssl_mode" env:"DSSSLMODE" env-default:"disable"`
}

// PipelineConfig holds pipeline tuning knobs.
type PipelineConfig struct {
	// DefaultRowLimit is the cap the limit-safety rule appends to plain
	// SELECT statements, and the hard bound on direct query execution.
	DefaultRowLimit int `yaml:"default_row_limit" env:"PIPELINE_DEFAULT_ROW_LIMIT" env-default:"1000"`

	// QueryTimeoutSeconds bounds a single database call.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" env:"PIPELINE_QUERY_TIMEOUT_SECONDS" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. A missing config.yaml is not an error: defaults plus
// environment variables describe a complete local setup.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Datasource.Type {
	case "sqlite":
		if c.Datasource.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite datasource")
		}
	case "postgres", "sqlserver":
		if c.Datasource.Database == "" {
			return fmt.Errorf("database is required for the %s datasource", c.Datasource.Type)
		}
		if c.Datasource.User == "" {
			return fmt.Errorf("user is required for the %s datasource", c.Datasource.Type)
		}
	default:
		return fmt.Errorf("unknown datasource type %q", c.Datasource.Type)
	}

	if c.Pipeline.DefaultRowLimit <= 0 {
		return fmt.Errorf("default_row_limit must be positive")
	}
	return nil
}
