package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the review monitor engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (database password, API keys, shared secrets) must only come from
// environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// App Store Connect API configuration
	AppStore AppStoreConfig `yaml:"appstore"`

	// AI classifier configuration
	AI AIConfig `yaml:"ai"`

	// Sync pipeline policy
	Sync SyncConfig `yaml:"sync"`

	// CronSecret authorizes the scheduled sync trigger.
	CronSecret string `yaml:"-" env:"CRON_SECRET"`

	// AdminAPIKey authorizes manual admin/sync calls.
	AdminAPIKey string `yaml:"-" env:"ADMIN_API_KEY"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"reviews"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"review_monitor"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// AppStoreConfig holds App Store Connect API transport settings.
// Per-account signing credentials live in the database, not here.
type AppStoreConfig struct {
	// BaseURL of the App Store Connect API. Overridable for tests.
	BaseURL string `yaml:"base_url" env:"APPSTORE_BASE_URL" env-default:"https://api.appstoreconnect.apple.com"`
	// PageSize is the per-page review limit. Apple caps this at 200.
	PageSize int `yaml:"page_size" env:"APPSTORE_PAGE_SIZE" env-default:"200"`
	// TokenTTLMinutes is the signed token lifetime. Apple rejects tokens
	// valid for more than 20 minutes; 10 leaves margin for clock skew and
	// in-flight pagination.
	TokenTTLMinutes int `yaml:"token_ttl_minutes" env:"APPSTORE_TOKEN_TTL_MINUTES" env-default:"10"`
}

// AIConfig holds classifier provider settings.
type AIConfig struct {
	// Provider selects the LLM backend: "openai" (any OpenAI-compatible
	// endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// IsConfigured returns true if a classifier backend is usable.
func (c *AIConfig) IsConfigured() bool {
	return c.Model != "" && (c.Endpoint != "" || c.Provider == "anthropic")
}

// Pagination policies for the review fetch loop.
const (
	// PaginationFull paginates every page and filters client-side. Edited
	// reviews with old creation dates are never missed.
	PaginationFull = "full"
	// PaginationEarlyStop stops at the first page whose oldest item predates
	// the window start. Cheaper, but edits to very old reviews are missed.
	PaginationEarlyStop = "early-stop"
)

// SyncConfig holds reconciliation policy settings.
type SyncConfig struct {
	// DefaultWindowDays is the rolling sync window applied when a run does
	// not specify an explicit date range.
	DefaultWindowDays int `yaml:"default_window_days" env:"SYNC_DEFAULT_WINDOW_DAYS" env-default:"30"`
	// PaginationPolicy is "full" or "early-stop".
	PaginationPolicy string `yaml:"pagination_policy" env:"SYNC_PAGINATION_POLICY" env-default:"full"`
	// NotifyThreshold is the fallback low-rating alert threshold used when
	// the settings table has no row.
	NotifyThreshold int `yaml:"notify_threshold" env:"SYNC_NOTIFY_THRESHOLD" env-default:"2"`
	// EscalationTopics are topic tags that force need_reply regardless of
	// rating. "crash" is always included.
	EscalationTopicsStr string   `yaml:"escalation_topics" env:"SYNC_ESCALATION_TOPICS" env-default:"crash,pay"`
	EscalationTopics    []string `yaml:"-"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Sync.EscalationTopics = splitTopics(cfg.Sync.EscalationTopicsStr)

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Sync.PaginationPolicy {
	case PaginationFull, PaginationEarlyStop:
	default:
		return fmt.Errorf("invalid sync.pagination_policy %q (want %q or %q)",
			c.Sync.PaginationPolicy, PaginationFull, PaginationEarlyStop)
	}

	if c.AppStore.PageSize < 1 || c.AppStore.PageSize > 200 {
		return fmt.Errorf("invalid appstore.page_size %d (must be 1-200)", c.AppStore.PageSize)
	}

	if c.AppStore.TokenTTLMinutes < 1 || c.AppStore.TokenTTLMinutes > 20 {
		return fmt.Errorf("invalid appstore.token_ttl_minutes %d (Apple caps tokens at 20 minutes)", c.AppStore.TokenTTLMinutes)
	}

	return nil
}

// splitTopics parses a comma-separated topic list, trimming whitespace and
// dropping empty entries.
func splitTopics(value string) []string {
	var topics []string
	for _, part := range strings.Split(value, ",") {
		if topic := strings.TrimSpace(part); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
