package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	AI struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"ai"`
	Context struct {
		MaxLength        int     `yaml:"max_length"`
		CompressionRatio float64 `yaml:"compression_ratio"`
	} `yaml:"context"`
	Run struct {
		MaxAttempts    int    `yaml:"max_attempts"`
		Workers        int    `yaml:"workers"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
		AbortOnError   bool   `yaml:"abort_on_error"`
		SkipOnFailure  bool   `yaml:"skip_on_failure"`
		GroupPolicy    string `yaml:"group_policy"` // "whole" or "member"
		FallbackFlat   bool   `yaml:"fallback_flat"`
	} `yaml:"run"`
	Output struct {
		DB            string `yaml:"db"`
		WriteMarkdown bool   `yaml:"write_markdown"`
	} `yaml:"output"`
}

// Default returns a config with the documented defaults applied.
func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.AI.Provider = "gemini"
	cfg.AI.Model = "gemini-2.0-flash"
	cfg.Context.MaxLength = 4000
	cfg.Context.CompressionRatio = 0.3
	cfg.Run.MaxAttempts = 3
	cfg.Run.Workers = 1
	cfg.Run.TimeoutSeconds = 120
	cfg.Run.GroupPolicy = "whole"
	cfg.Output.DB = "depdoc.db"
	cfg.Output.WriteMarkdown = true
	return &cfg
}

// LoadConfig reads the YAML config file and applies environment overrides.
// A missing file is not an error; defaults are returned instead.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("DEPDOC_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("DEPDOC_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if model := os.Getenv("DEPDOC_AI_MODEL"); model != "" {
		cfg.AI.Model = model
	}
	if workers := os.Getenv("DEPDOC_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.Run.Workers = n
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Run.MaxAttempts < 1 {
		return fmt.Errorf("run.max_attempts must be >= 1, got %d", c.Run.MaxAttempts)
	}
	if c.Context.MaxLength < 8 {
		return fmt.Errorf("context.max_length must be >= 8, got %d", c.Context.MaxLength)
	}
	if c.Context.CompressionRatio <= 0 || c.Context.CompressionRatio > 1 {
		return fmt.Errorf("context.compression_ratio must be in (0, 1], got %v", c.Context.CompressionRatio)
	}
	switch c.Run.GroupPolicy {
	case "whole", "member":
	default:
		return fmt.Errorf("run.group_policy must be %q or %q, got %q", "whole", "member", c.Run.GroupPolicy)
	}
	return nil
}

// Timeout returns the per-generation timeout as a duration. Zero disables it.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Run.TimeoutSeconds) * time.Second
}
