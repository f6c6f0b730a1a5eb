// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Report   ReportConfig   `mapstructure:"report"`
	Publish  PublishConfig  `mapstructure:"publish"`
}

// ServerConfig controls the operational HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features and file rotation.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
}

// CrawlConfig governs the crawl pipeline.
type CrawlConfig struct {
	DirectoryURL string `mapstructure:"directory_url"`
	Concurrency  int    `mapstructure:"concurrency"`
	QueueDepth   int    `mapstructure:"queue_depth"`
}

// FetchConfig configures the politeness-gated fetch client.
type FetchConfig struct {
	UserAgent          string        `mapstructure:"user_agent"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MinHostInterval    time.Duration `mapstructure:"min_host_interval"`
	MaxAttempts        int           `mapstructure:"max_attempts"`
	RespectRobots      bool          `mapstructure:"respect_robots"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// FeedConfig points at the authoritative structured feed and the curated
// neighborhoods table.
type FeedConfig struct {
	URL               string        `mapstructure:"url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	NeighborhoodsFile string        `mapstructure:"neighborhoods_file"`
}

// SnapshotConfig selects and configures the dataset store backend.
type SnapshotConfig struct {
	Provider string                 `mapstructure:"provider"`
	Local    SnapshotLocalConfig    `mapstructure:"local"`
	Postgres SnapshotPostgresConfig `mapstructure:"postgres"`
	GCS      SnapshotGCSConfig      `mapstructure:"gcs"`
}

// SnapshotLocalConfig configures the filesystem snapshot store.
type SnapshotLocalConfig struct {
	Dir string `mapstructure:"dir"`
}

// SnapshotPostgresConfig configures the Postgres snapshot store.
type SnapshotPostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// SnapshotGCSConfig configures the GCS snapshot store.
type SnapshotGCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// ReportConfig controls where change reports and run summaries land.
type ReportConfig struct {
	Dir string `mapstructure:"dir"`
}

// PublishConfig selects the change notification publisher.
type PublishConfig struct {
	Provider string `mapstructure:"provider"`
	PubSub   PubSubConfig `mapstructure:"pubsub"`
}

// PubSubConfig holds GCP Pub/Sub coordinates.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WARDSYNC")
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
	v.SetDefault("server.port", 8900)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("crawl.directory_url", "https://www.chicago.gov/city/en/about/wards.html")
	v.SetDefault("crawl.concurrency", 4)
	v.SetDefault("crawl.queue_depth", 128)
	v.SetDefault("fetch.user_agent", "wardsync-bot/0.1 (civic engagement platform)")
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.min_host_interval", 2*time.Second)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.insecure_skip_verify", false)
	v.SetDefault("feed.url", "https://data.cityofchicago.org/resource/htai-wnw4.json")
	v.SetDefault("feed.timeout", 30*time.Second)
	v.SetDefault("feed.neighborhoods_file", "data/neighborhoods.yaml")
	v.SetDefault("snapshot.provider", "local")
	v.SetDefault("snapshot.local.dir", "data/snapshots")
	v.SetDefault("snapshot.postgres.table", "ward_snapshots")
	v.SetDefault("snapshot.gcs.prefix", "snapshots")
	v.SetDefault("report.dir", "data/reports")
	v.SetDefault("publish.provider", "noop")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawl.DirectoryURL == "" {
		return fmt.Errorf("crawl.directory_url must be set")
	}
	if c.Crawl.Concurrency <= 0 {
		return fmt.Errorf("crawl.concurrency must be > 0")
	}
	if c.Crawl.QueueDepth <= 0 {
		return fmt.Errorf("crawl.queue_depth must be > 0")
	}
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.MinHostInterval < 0 {
		return fmt.Errorf("fetch.min_host_interval must be >= 0")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url must be set")
	}
	switch c.Snapshot.Provider {
	case "local":
		if c.Snapshot.Local.Dir == "" {
			return fmt.Errorf("snapshot.local.dir must be set")
		}
	case "postgres":
		if c.Snapshot.Postgres.DSN == "" {
			return fmt.Errorf("snapshot.postgres.dsn must be set")
		}
	case "gcs":
		if c.Snapshot.GCS.Bucket == "" {
			return fmt.Errorf("snapshot.gcs.bucket must be set")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown snapshot provider: %s", c.Snapshot.Provider)
	}
	switch c.Publish.Provider {
	case "noop", "memory":
	case "pubsub":
		if c.Publish.PubSub.ProjectID == "" || c.Publish.PubSub.Topic == "" {
			return fmt.Errorf("publish.pubsub.project_id and publish.pubsub.topic must be set")
		}
	default:
		return fmt.Errorf("unknown publish provider: %s", c.Publish.Provider)
	}
	return nil
}
