package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "dialog", cfg.AI.Backend)
	assert.Equal(t, 12, cfg.AI.OperatingSystemCode)
	assert.Equal(t, 1, cfg.AI.ModelCode)
	assert.Equal(t, 3, cfg.AI.RetryCount)
	assert.Equal(t, 50, cfg.AI.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.AI.RetryInterval())
	assert.Equal(t, "github", cfg.Source.Provider)
	assert.Equal(t, []string{".py", ".js", ".ts", ".go", ".rs", ".cs"}, cfg.Generate.Extensions)
	assert.Equal(t, 1, cfg.Generate.Concurrency)
	assert.Empty(t, cfg.Publish.Target)
}

func TestLoadFromFile(t *testing.T) {
	tomlContent := `
[ai]
base_url = "https://ai.example.com/api"
domain = "corp"
retry_timeout = 0.5
max_attempts = 10
close_dialogs = false

[source]
provider = "gitlab"
base_url = "https://gitlab.example.com"
requests_per_second = 5.0
burst = 2

[generate]
output_dir = "/tmp/docs"
exclude = ["vendor/**"]
concurrency = 4

[log]
dir = "/var/log/docgen"
dev = true
`
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(tomlContent), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "https://ai.example.com/api", cfg.AI.BaseURL)
	assert.Equal(t, "corp", cfg.AI.Domain)
	assert.Equal(t, 500*time.Millisecond, cfg.AI.RetryInterval())
	assert.Equal(t, 10, cfg.AI.MaxAttempts)
	assert.False(t, cfg.AI.CloseDialogs)
	assert.Equal(t, 3, cfg.AI.RetryCount, "unset keys keep their defaults")
	assert.Equal(t, "gitlab", cfg.Source.Provider)
	assert.Equal(t, 5.0, cfg.Source.RequestsPerSecond)
	assert.Equal(t, "/tmp/docs", cfg.Generate.OutputDir)
	assert.Equal(t, []string{"vendor/**"}, cfg.Generate.Exclude)
	assert.Equal(t, 4, cfg.Generate.Concurrency)
	assert.Equal(t, "/var/log/docgen", cfg.Log.Dir)
	assert.True(t, cfg.Log.Dev)
	require.NoError(t, cfg.Validate())
}

func TestLoadPublishSection(t *testing.T) {
	tomlContent := `
[ai]
base_url = "https://ai.example.com"

[publish]
target = "s3"

[publish.s3]
endpoint = "localhost:9000"
bucket = "docs"
use_ssl = false
`
	tmpFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(tomlContent), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "s3", cfg.Publish.Target)
	assert.Equal(t, "localhost:9000", cfg.Publish.S3.Endpoint)
	assert.Equal(t, "docs", cfg.Publish.S3.Bucket)
	assert.Equal(t, "docs", cfg.Publish.S3.Prefix)
	assert.False(t, cfg.Publish.S3.UseSSL)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "dialog", cfg.AI.Backend)
	assert.Equal(t, 50, cfg.AI.MaxAttempts)
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("[invalid toml..."), 0644))

	_, err := Load(tmpFile)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.AI.BaseURL = "https://ai.example.com"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"dialog needs base url", func(c *Config) { c.AI.BaseURL = "" }, "ai.base_url is required"},
		{"gemini needs no base url", func(c *Config) { c.AI.Backend = "gemini"; c.AI.BaseURL = "" }, ""},
		{"unknown backend", func(c *Config) { c.AI.Backend = "carrier-pigeon" }, "Config.AI.Backend"},
		{"bad url", func(c *Config) { c.AI.BaseURL = "not a url" }, "Config.AI.BaseURL"},
		{"zero attempts", func(c *Config) { c.AI.MaxAttempts = 0 }, "Config.AI.MaxAttempts"},
		{"unknown provider", func(c *Config) { c.Source.Provider = "svn" }, "Config.Source.Provider"},
		{"extension without dot", func(c *Config) { c.Generate.Extensions = []string{"go"} }, "Config.Generate.Extensions[0]"},
		{"too much concurrency", func(c *Config) { c.Generate.Concurrency = 1000 }, "Config.Generate.Concurrency"},
		{"unknown publish target", func(c *Config) { c.Publish.Target = "ftp" }, "Config.Publish.Target"},
		{"s3 without bucket", func(c *Config) {
			c.Publish.Target = "s3"
			c.Publish.S3.Endpoint = "minio:9000"
		}, "publish.s3 needs endpoint and bucket"},
		{"github repository shape", func(c *Config) {
			c.Publish.Target = "github"
			c.Publish.GitHub.Repository = "just-a-name"
		}, "must be owner/name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAIBaseURL, "https://env.example.com")
	t.Setenv(EnvAIDomain, "envdomain")
	t.Setenv(EnvOutputDir, "/env/out")
	t.Setenv(EnvDev, "true")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "https://env.example.com", cfg.AI.BaseURL)
	assert.Equal(t, "envdomain", cfg.AI.Domain)
	assert.Equal(t, "/env/out", cfg.Generate.OutputDir)
	assert.True(t, cfg.Log.Dev)
}

func TestApplyEnvRejectsBadBool(t *testing.T) {
	t.Setenv(EnvDev, "sometimes")
	assert.ErrorContains(t, ApplyEnv(DefaultConfig()), EnvDev)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DOCGEN_TEST_DOTENV=from-file\nDOCGEN_TEST_PRESET=from-file\n"), 0o644))
	t.Setenv("DOCGEN_TEST_PRESET", "from-env")
	t.Setenv("DOCGEN_TEST_DOTENV", "")
	os.Unsetenv("DOCGEN_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("DOCGEN_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("DOCGEN_TEST_PRESET"))
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, filepath.Join("/home/tester", "docs"), ExpandHome("~/docs"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}
