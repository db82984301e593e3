// Package config loads and validates bindery configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Output    OutputConfig    `mapstructure:"output"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	QR        QRConfig        `mapstructure:"qr"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// FetchConfig bounds the archive download.
type FetchConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// OutputConfig sets where deliverable PDFs are written.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// WorkspaceConfig governs extraction workspaces and the expiry sweep.
type WorkspaceConfig struct {
	Root                 string `mapstructure:"root"`
	RetentionMinutes     int    `mapstructure:"retention_minutes"`
	SweepIntervalMinutes int    `mapstructure:"sweep_interval_minutes"`
}

// PricingConfig feeds the running-total ledger.
type PricingConfig struct {
	PerPage float64 `mapstructure:"per_page"`
}

// StorageConfig enables the optional GCS archival copy of deliverables.
type StorageConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// LedgerConfig controls access to the Postgres ledger.
type LedgerConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// DeliveryConfig holds metadata for the Pub/Sub delivery topic.
type DeliveryConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// QRConfig configures the reorder QR asset.
type QRConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BINDERY")
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
	v.SetDefault("fetch.timeout_seconds", 120)
	v.SetDefault("output.dir", "/var/lib/bindery/output")
	v.SetDefault("workspace.root", "/var/lib/bindery/work")
	v.SetDefault("workspace.retention_minutes", 60)
	v.SetDefault("workspace.sweep_interval_minutes", 15)
	v.SetDefault("pricing.per_page", 0.0)
	v.SetDefault("storage.prefix", "deliverables")
	v.SetDefault("ledger.table", "print_ledger")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir is required")
	}
	if strings.TrimSpace(c.Workspace.Root) == "" {
		return fmt.Errorf("workspace.root is required")
	}
	if c.Workspace.RetentionMinutes <= 0 {
		return fmt.Errorf("workspace.retention_minutes must be > 0")
	}
	if c.Pricing.PerPage < 0 {
		return fmt.Errorf("pricing.per_page must be >= 0")
	}
	if c.Delivery.TopicName != "" && c.Delivery.ProjectID == "" {
		return fmt.Errorf("delivery.project_id is required when delivery.topic_name is set")
	}
	return nil
}

// FetchTimeout converts the fetch timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// WorkspaceRetention converts the retention config into a duration.
func (c Config) WorkspaceRetention() time.Duration {
	return time.Duration(c.Workspace.RetentionMinutes) * time.Minute
}

// SweepInterval converts the sweep interval config into a duration.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Workspace.SweepIntervalMinutes) * time.Minute
}
