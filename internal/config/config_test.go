package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 8900, cfg.Server.Port)
	require.Equal(t, "https://www.chicago.gov/city/en/about/wards.html", cfg.Crawl.DirectoryURL)
	require.Equal(t, 4, cfg.Crawl.Concurrency)
	require.Equal(t, 128, cfg.Crawl.QueueDepth)
	require.Equal(t, 2*time.Second, cfg.Fetch.MinHostInterval)
	require.Equal(t, 3, cfg.Fetch.MaxAttempts)
	require.True(t, cfg.Fetch.RespectRobots)
	require.False(t, cfg.Fetch.InsecureSkipVerify)
	require.Equal(t, "https://data.cityofchicago.org/resource/htai-wnw4.json", cfg.Feed.URL)
	require.Equal(t, "local", cfg.Snapshot.Provider)
	require.Equal(t, "noop", cfg.Publish.Provider)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9100
crawl:
  concurrency: 8
snapshot:
  provider: memory
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, 8, cfg.Crawl.Concurrency)
	require.Equal(t, "memory", cfg.Snapshot.Provider)
	// Untouched keys keep their defaults.
	require.Equal(t, 3, cfg.Fetch.MaxAttempts)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Crawl.Concurrency = 0
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Fetch.UserAgent = ""
	require.Error(t, cfg.Validate())

	cfg = base()
	cfg.Snapshot.Provider = "postgres"
	require.Error(t, cfg.Validate(), "postgres without DSN must fail")
	cfg.Snapshot.Postgres.DSN = "postgres://localhost/wardsync"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Snapshot.Provider = "gcs"
	require.Error(t, cfg.Validate())
	cfg.Snapshot.GCS.Bucket = "wardsync-snapshots"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Publish.Provider = "pubsub"
	require.Error(t, cfg.Validate())
	cfg.Publish.PubSub.ProjectID = "civic"
	cfg.Publish.PubSub.Topic = "ward-changes"
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Publish.Provider = "kafka"
	require.Error(t, cfg.Validate())
}
