// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./migbot.yaml or ~/.migbot/config.yaml)
//  3. Default values
//
// Sensitive data (OAuth client secret) is never logged; see MarshalJSON.
// Validation is fail-fast with sentinel errors checked via errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidBlogFeedURL indicates the blog feed URL is malformed.
	ErrInvalidBlogFeedURL = errors.New("invalid blog feed URL")

	// ErrInvalidChunking indicates inconsistent chunk size/overlap values.
	ErrInvalidChunking = errors.New("invalid chunking parameters")

	// ErrInvalidIndexPath indicates the vector index path is empty.
	ErrInvalidIndexPath = errors.New("invalid index path")

	// ErrInvalidPagination indicates blog pagination limits are out of range.
	ErrInvalidPagination = errors.New("invalid blog pagination")
)

// Defaults mirrored in setDefaults.
const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultModelName is the default generation model.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = "0.0.0.0:8002"
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON. When adding new
// secret fields, update MarshalJSON.
type Config struct {
	// AI provider and model configuration
	ModelName     string  `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string  `mapstructure:"embedder_model" json:"embedder_model"`
	Temperature   float32 `mapstructure:"temperature" json:"temperature"`

	// HTTP server
	Addr        string   `mapstructure:"addr" json:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Local document sources. Missing directories are skipped at rebuild.
	PDFDir   string `mapstructure:"pdf_dir" json:"pdf_dir"`
	ExcelDir string `mapstructure:"excel_dir" json:"excel_dir"`
	DocDir   string `mapstructure:"doc_dir" json:"doc_dir"`

	// Blog ingestion (WordPress REST API)
	BlogFeedURL      string `mapstructure:"blog_feed_url" json:"blog_feed_url"`
	BlogPostsPerPage int    `mapstructure:"blog_posts_per_page" json:"blog_posts_per_page"`
	BlogMaxPages     int    `mapstructure:"blog_max_pages" json:"blog_max_pages"`
	FetchDelayMs     int    `mapstructure:"fetch_delay_ms" json:"fetch_delay_ms"`

	// Vector index lifecycle
	IndexPath  string `mapstructure:"index_path" json:"index_path"`
	BackupPath string `mapstructure:"backup_path" json:"backup_path"`

	// Chunking
	ChunkSize    int `mapstructure:"chunk_size" json:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap" json:"chunk_overlap"`
	MinChunkSize int `mapstructure:"min_chunk_size" json:"min_chunk_size"`

	// Microsoft OAuth (token exchange collaborator, not hardened)
	MicrosoftClientID     string `mapstructure:"microsoft_client_id" json:"microsoft_client_id"`
	MicrosoftClientSecret string `mapstructure:"microsoft_client_secret" json:"microsoft_client_secret"` // SENSITIVE: masked in MarshalJSON
	MicrosoftTenant       string `mapstructure:"microsoft_tenant" json:"microsoft_tenant"`
	MicrosoftRedirectURL  string `mapstructure:"microsoft_redirect_url" json:"microsoft_redirect_url"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".migbot")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", DefaultModelName)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("temperature", 0.7)

	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("cors_origins", []string{"*"})

	v.SetDefault("pdf_dir", "./pdfs")
	v.SetDefault("excel_dir", "./excel")
	v.SetDefault("doc_dir", "./docs")

	v.SetDefault("blog_feed_url", "https://www.cloudfuze.com/wp-json/wp/v2/posts?tags=412")
	v.SetDefault("blog_posts_per_page", 100)
	v.SetDefault("blog_max_pages", 10)
	v.SetDefault("fetch_delay_ms", 500)

	v.SetDefault("index_path", "./data/index")
	v.SetDefault("backup_path", "./data/index_backup")

	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
	v.SetDefault("min_chunk_size", 100)

	v.SetDefault("microsoft_tenant", "common")
}

// bindEnvVariables binds environment variables explicitly.
// GEMINI_API_KEY is read directly by Genkit, not via Viper; Validate
// only checks its presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("addr", "MIGBOT_ADDR")
	mustBind("model_name", "MIGBOT_MODEL_NAME")
	mustBind("embedder_model", "MIGBOT_EMBEDDER_MODEL")
	mustBind("blog_feed_url", "MIGBOT_BLOG_FEED_URL")
	mustBind("index_path", "MIGBOT_INDEX_PATH")
	mustBind("cors_origins", "MIGBOT_CORS_ORIGINS")

	mustBind("microsoft_client_id", "MICROSOFT_CLIENT_ID")
	mustBind("microsoft_client_secret", "MICROSOFT_CLIENT_SECRET")
	mustBind("microsoft_tenant", "MICROSOFT_TENANT")
	mustBind("microsoft_redirect_url", "MICROSOFT_REDIRECT_URL")
}

// Validate checks the configuration and fails fast on the first problem.
func (c *Config) Validate() error {
	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder model must not be empty", ErrInvalidModelName)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: got %v, want [0, 2]", ErrInvalidTemperature, c.Temperature)
	}
	if c.IndexPath == "" {
		return fmt.Errorf("%w: index path must not be empty", ErrInvalidIndexPath)
	}
	if c.BlogFeedURL != "" {
		u, err := url.Parse(c.BlogFeedURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidBlogFeedURL, c.BlogFeedURL)
		}
	}
	if c.BlogPostsPerPage < 1 || c.BlogPostsPerPage > 100 {
		return fmt.Errorf("%w: posts per page %d, want [1, 100]", ErrInvalidPagination, c.BlogPostsPerPage)
	}
	if c.BlogMaxPages < 1 || c.BlogMaxPages > 100 {
		return fmt.Errorf("%w: max pages %d, want [1, 100]", ErrInvalidPagination, c.BlogMaxPages)
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size %d overlap %d", ErrInvalidChunking, c.ChunkSize, c.ChunkOverlap)
	}
	if c.MinChunkSize < 0 || c.MinChunkSize > c.ChunkSize {
		return fmt.Errorf("%w: min chunk size %d", ErrInvalidChunking, c.MinChunkSize)
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", ErrMissingAPIKey)
	}
	return nil
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "googleai/gemini-2.5-flash".
func (c *Config) FullModelName() string {
	return "googleai/" + c.ModelName
}

const maskedValue = "████████"

// maskSecret masks a secret for safe logging. Short secrets are fully
// masked to prevent substring matching against the masked output.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.MicrosoftClientSecret = maskSecret(a.MicrosoftClientSecret)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
