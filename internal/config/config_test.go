package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, ".", cfg.Project.Root)
		assert.Equal(t, "gemini", cfg.AI.Provider)
		assert.Equal(t, 3, cfg.Run.MaxAttempts)
		assert.Equal(t, "whole", cfg.Run.GroupPolicy)
		assert.Equal(t, 120*time.Second, cfg.Timeout())
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
project:
  root: /srv/code
run:
  max_attempts: 5
  workers: 8
  group_policy: member
context:
  max_length: 2000
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/srv/code", cfg.Project.Root)
		assert.Equal(t, 5, cfg.Run.MaxAttempts)
		assert.Equal(t, 8, cfg.Run.Workers)
		assert.Equal(t, "member", cfg.Run.GroupPolicy)
		assert.Equal(t, 2000, cfg.Context.MaxLength)
		// Untouched sections keep defaults.
		assert.Equal(t, 0.3, cfg.Context.CompressionRatio)
	})

	t.Run("environment wins over yaml", func(t *testing.T) {
		path := writeConfig(t, "ai:\n  model: from-yaml\n")
		t.Setenv("DEPDOC_AI_MODEL", "from-env")
		t.Setenv("DEPDOC_API_KEY", "secret")
		t.Setenv("DEPDOC_WORKERS", "4")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.AI.Model)
		assert.Equal(t, "secret", cfg.AI.APIKey)
		assert.Equal(t, 4, cfg.Run.Workers)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfig(t, "run: [not a mapping")
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"zero attempts", "run:\n  max_attempts: 0\n"},
		{"tiny context", "context:\n  max_length: 4\n"},
		{"ratio too large", "context:\n  compression_ratio: 1.5\n"},
		{"ratio zero", "context:\n  compression_ratio: 0\n"},
		{"bad group policy", "run:\n  group_policy: sometimes\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}
