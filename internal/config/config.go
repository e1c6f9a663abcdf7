package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Environment variables read by ApplyEnv and by secret resolution.
const (
	EnvAIBaseURL      = "DOCGEN_AI_BASE_URL"
	EnvAIKey          = "DOCGEN_AI_KEY"
	EnvAIDomain       = "DOCGEN_AI_DOMAIN"
	EnvSourceToken    = "DOCGEN_SOURCE_TOKEN"
	EnvOutputDir      = "DOCGEN_OUTPUT_DIR"
	EnvDev            = "DOCGEN_DEV"
	EnvS3AccessKey    = "DOCGEN_S3_ACCESS_KEY"
	EnvS3SecretKey    = "DOCGEN_S3_SECRET_KEY"
	EnvPublishToken   = "DOCGEN_PUBLISH_TOKEN"
	EnvGeminiKey      = "GEMINI_API_KEY"
	defaultConfigPath = ".config/docgen"
)

// Config represents the top-level application configuration.
type Config struct {
	AI       AIConfig       `toml:"ai"`
	Source   SourceConfig   `toml:"source"`
	Generate GenerateConfig `toml:"generate"`
	Store    StoreConfig    `toml:"store"`
	Log      LogConfig      `toml:"log"`
	Publish  PublishConfig  `toml:"publish"`
}

// AIConfig holds the AI backend coordinates and retry policy.
type AIConfig struct {
	Backend             string  `toml:"backend" validate:"oneof=dialog gemini"`
	BaseURL             string  `toml:"base_url" validate:"omitempty,url"`
	APIKeySource        string  `toml:"api_key_source" validate:"oneof=env config keyring"`
	APIKey              string  `toml:"api_key"`
	Domain              string  `toml:"domain"`
	OperatingSystemCode int     `toml:"operating_system_code" validate:"gte=0"`
	ModelCode           int     `toml:"model_code" validate:"gte=0"`
	RetryTimeout        float64 `toml:"retry_timeout" validate:"gte=0"` // seconds between attempts
	RetryCount          int     `toml:"retry_count" validate:"gte=1"`
	MaxAttempts         int     `toml:"max_attempts" validate:"gte=1"`
	CloseDialogs        bool    `toml:"close_dialogs"`
	GeminiModel         string  `toml:"gemini_model"`
}

// RetryInterval returns RetryTimeout as a duration.
func (c AIConfig) RetryInterval() time.Duration {
	return time.Duration(c.RetryTimeout * float64(time.Second))
}

// KeyEnvVar is the environment variable holding the API key of the
// configured backend.
func (c AIConfig) KeyEnvVar() string {
	if c.Backend == "gemini" {
		return EnvGeminiKey
	}
	return EnvAIKey
}

// SourceConfig selects and tunes the repository source.
type SourceConfig struct {
	Provider          string  `toml:"provider" validate:"oneof=github gitlab local"`
	BaseURL           string  `toml:"base_url" validate:"omitempty,url"`
	TokenSource       string  `toml:"token_source" validate:"oneof=env config keyring"`
	Token             string  `toml:"token"`
	RequestsPerSecond float64 `toml:"requests_per_second" validate:"gte=0"`
	Burst             int     `toml:"burst" validate:"gte=0"`
	CacheSize         int     `toml:"cache_size" validate:"gte=0"`
}

// GenerateConfig controls what is documented and where it goes.
type GenerateConfig struct {
	OutputDir      string   `toml:"output_dir"`
	Extensions     []string `toml:"extensions" validate:"dive,startswith=."`
	Exclude        []string `toml:"exclude"`
	Concurrency    int      `toml:"concurrency" validate:"gte=1,lte=64"`
	ModulePrompt   string   `toml:"module_prompt"`   // path to a prompt template file
	OverviewPrompt string   `toml:"overview_prompt"` // path to a prompt template file
}

// StoreConfig locates the run history database. An empty path disables it.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig controls log output.
type LogConfig struct {
	Dir string `toml:"dir"`
	Dev bool   `toml:"dev"`
}

// PublishConfig selects where finished documentation is uploaded.
type PublishConfig struct {
	Target string              `toml:"target" validate:"omitempty,oneof=s3 github"`
	S3     S3PublishConfig     `toml:"s3"`
	GitHub GitHubPublishConfig `toml:"github"`
}

// S3PublishConfig holds S3-compatible storage settings.
type S3PublishConfig struct {
	Endpoint        string `toml:"endpoint" validate:"omitempty,hostname_port|hostname"`
	Region          string `toml:"region"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	UseSSL          bool   `toml:"use_ssl"`
	CredentialsFrom string `toml:"credentials_source" validate:"oneof=env config keyring"`
	AccessKey       string `toml:"access_key"`
	SecretKey       string `toml:"secret_key"`
}

// GitHubPublishConfig holds the documentation repository settings.
type GitHubPublishConfig struct {
	Repository  string `toml:"repository"` // owner/name
	Branch      string `toml:"branch"`
	BaseURL     string `toml:"base_url" validate:"omitempty,url"`
	Private     bool   `toml:"private"`
	TokenSource string `toml:"token_source" validate:"oneof=env config keyring"`
	Token       string `toml:"token"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		AI: AIConfig{
			Backend:             "dialog",
			APIKeySource:        "env",
			Domain:              "docgen",
			OperatingSystemCode: 12,
			ModelCode:           1,
			RetryTimeout:        3,
			RetryCount:          3,
			MaxAttempts:         50,
			CloseDialogs:        true,
			GeminiModel:         "gemini-2.5-flash",
		},
		Source: SourceConfig{
			Provider:    "github",
			TokenSource: "env",
			Burst:       1,
			CacheSize:   256,
		},
		Generate: GenerateConfig{
			Extensions:  []string{".py", ".js", ".ts", ".go", ".rs", ".cs"},
			Concurrency: 1,
		},
		Store: StoreConfig{
			Path: filepath.Join("~", defaultConfigPath, "history.db"),
		},
		Publish: PublishConfig{
			S3: S3PublishConfig{
				Prefix:          "docs",
				UseSSL:          true,
				CredentialsFrom: "env",
			},
			GitHub: GitHubPublishConfig{
				Branch:      "main",
				TokenSource: "env",
			},
		},
	}
}

// DefaultPath returns ~/.config/docgen/config.toml.
func DefaultPath() string {
	return filepath.Join(ExpandHome("~"), defaultConfigPath, "config.toml")
}

// Load reads the TOML file at path over DefaultConfig. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the settings each selected backend
// needs.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.AI.Backend == "dialog" && c.AI.BaseURL == "" {
		return fmt.Errorf("invalid config: ai.base_url is required for the dialog backend (or set %s)", EnvAIBaseURL)
	}
	switch c.Publish.Target {
	case "s3":
		if c.Publish.S3.Endpoint == "" || c.Publish.S3.Bucket == "" {
			return fmt.Errorf("invalid config: publish.s3 needs endpoint and bucket")
		}
	case "github":
		if strings.Count(c.Publish.GitHub.Repository, "/") != 1 {
			return fmt.Errorf("invalid config: publish.github.repository must be owner/name, got %q", c.Publish.GitHub.Repository)
		}
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}
