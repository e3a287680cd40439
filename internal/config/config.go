// Package config loads and validates feed service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Feed    FeedConfig    `mapstructure:"feed"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Sources SourcesConfig `mapstructure:"sources"`
	Webscan WebscanConfig `mapstructure:"webscan"`
	Storage StorageConfig `mapstructure:"storage"`
	Blob    BlobConfig    `mapstructure:"blob"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// FeedConfig governs cross-source search behavior.
type FeedConfig struct {
	DefaultLimit int    `mapstructure:"default_limit"`
	Tenant       string `mapstructure:"tenant"`
	EventTopic   string `mapstructure:"event_topic"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// SourcesConfig holds per-source adapter settings.
type SourcesConfig struct {
	Remotive    RemotiveConfig    `mapstructure:"remotive"`
	Arbeitnow   ArbeitnowConfig   `mapstructure:"arbeitnow"`
	Jooble      JoobleConfig      `mapstructure:"jooble"`
	WWR         WWRConfig         `mapstructure:"wwr"`
	Opportunity OpportunityConfig `mapstructure:"opportunity"`
}

// RemotiveConfig configures the Remotive adapter.
type RemotiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

// ArbeitnowConfig configures the Arbeitnow adapter.
type ArbeitnowConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

// JoobleConfig configures the Jooble adapter. APIKey is mandatory for live
// searches but its absence is reported per search, not at startup.
type JoobleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// WWRConfig configures the We Work Remotely adapter.
type WWRConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
}

// OpportunityConfig configures the generated-lead adapter and its places
// collaborator.
type OpportunityConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Location      string `mapstructure:"location"`
	PlacesBaseURL string `mapstructure:"places_base_url"`
	PlacesAPIKey  string `mapstructure:"places_api_key"`
	PaceMs        int    `mapstructure:"pace_ms"`
}

// WebscanConfig configures website analysis and headless promotion.
type WebscanConfig struct {
	TimeoutSeconds  int  `mapstructure:"timeout_seconds"`
	HeadlessEnabled bool `mapstructure:"headless_enabled"`
	MaxParallel     int  `mapstructure:"max_parallel"`
	NavTimeoutSec   int  `mapstructure:"nav_timeout_seconds"`
}

// StorageConfig controls record persistence.
type StorageConfig struct {
	Backend         string `mapstructure:"backend"`
	DSN             string `mapstructure:"dsn"`
	Table           string `mapstructure:"table"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime_seconds"`
}

// BlobConfig controls raw search artifact archival.
type BlobConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GIGFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("feed.default_limit", 20)
	v.SetDefault("feed.tenant", "default")
	v.SetDefault("feed.event_topic", "feed-search-completed")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "gigfeed-bot/0.1")
	v.SetDefault("sources.remotive.enabled", true)
	v.SetDefault("sources.remotive.base_url", "https://remotive.com")
	v.SetDefault("sources.arbeitnow.enabled", true)
	v.SetDefault("sources.arbeitnow.base_url", "https://www.arbeitnow.com")
	v.SetDefault("sources.jooble.enabled", true)
	v.SetDefault("sources.jooble.base_url", "https://jooble.org")
	v.SetDefault("sources.jooble.api_key", "")
	v.SetDefault("sources.wwr.enabled", true)
	v.SetDefault("sources.wwr.base_url", "https://weworkremotely.com")
	v.SetDefault("sources.opportunity.enabled", false)
	v.SetDefault("sources.opportunity.location", "")
	v.SetDefault("sources.opportunity.places_base_url", "")
	v.SetDefault("sources.opportunity.places_api_key", "")
	v.SetDefault("sources.opportunity.pace_ms", 150)
	v.SetDefault("webscan.timeout_seconds", 8)
	v.SetDefault("webscan.headless_enabled", false)
	v.SetDefault("webscan.max_parallel", 1)
	v.SetDefault("webscan.nav_timeout_seconds", 20)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.table", "records")
	v.SetDefault("blob.backend", "none")
	v.SetDefault("pubsub.enabled", false)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Feed.DefaultLimit <= 0 {
		return fmt.Errorf("feed.default_limit must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn must be set when storage.backend is postgres")
		}
	default:
		return fmt.Errorf("storage.backend must be memory or postgres, got %q", c.Storage.Backend)
	}
	switch c.Blob.Backend {
	case "none", "memory":
	case "local":
		if c.Blob.BaseDir == "" {
			return fmt.Errorf("blob.base_dir must be set when blob.backend is local")
		}
	case "gcs":
		if c.Blob.GCSBucket == "" {
			return fmt.Errorf("blob.gcs_bucket must be set when blob.backend is gcs")
		}
	default:
		return fmt.Errorf("blob.backend must be none, memory, local, or gcs, got %q", c.Blob.Backend)
	}
	if c.PubSub.Enabled && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub is enabled")
	}
	if c.Sources.Opportunity.Enabled && c.Sources.Opportunity.PlacesBaseURL == "" {
		return fmt.Errorf("sources.opportunity.places_base_url must be set when the opportunity source is enabled")
	}
	if c.Webscan.HeadlessEnabled && c.Webscan.MaxParallel <= 0 {
		return fmt.Errorf("webscan.max_parallel must be > 0 when headless is enabled")
	}
	return nil
}

// HTTPTimeout converts the HTTP timeout config into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// WebscanTimeout converts the webscan timeout config into a duration.
func (c Config) WebscanTimeout() time.Duration {
	return time.Duration(c.Webscan.TimeoutSeconds) * time.Second
}

// OpportunityPace converts the configured pacing into a duration.
func (c Config) OpportunityPace() time.Duration {
	return time.Duration(c.Sources.Opportunity.PaceMs) * time.Millisecond
}
