// Package app initializes and holds the long-lived services, acting as the
// dependency injection container built once per process.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/civicpie/wardsync/internal/api"
	"github.com/civicpie/wardsync/internal/config"
	"github.com/civicpie/wardsync/internal/feed"
	"github.com/civicpie/wardsync/internal/fetch"
	"github.com/civicpie/wardsync/internal/logging"
	"github.com/civicpie/wardsync/internal/metrics"
	"github.com/civicpie/wardsync/internal/publish"
	"github.com/civicpie/wardsync/internal/snapshot"
)

// App holds the shared services: logger, fetch client, feed client,
// snapshot store, report writer, and publisher. Built once at startup and
// passed to the commands that need it; fails fast when any critical
// service cannot be initialized.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   *fetch.Client
	feed      *feed.Client
	store     snapshot.Store
	reports   *snapshot.ReportWriter
	publisher publish.Publisher
	status    *Status
}

// New builds the App from configuration.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	metrics.Init()

	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger.Info("initializing services")

	store, err := newSnapshotStore(ctx, cfg.Snapshot, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize snapshot store: %w", err)
	}

	reports, err := snapshot.NewReportWriter(cfg.Report.Dir)
	if err != nil {
		return nil, fmt.Errorf("initialize report writer: %w", err)
	}

	publisher, err := newPublisher(ctx, cfg.Publish, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize publisher: %w", err)
	}

	fetcher := fetch.NewClient(fetch.Config{
		UserAgent:          cfg.Fetch.UserAgent,
		Timeout:            cfg.Fetch.Timeout,
		MinHostInterval:    cfg.Fetch.MinHostInterval,
		MaxAttempts:        cfg.Fetch.MaxAttempts,
		RespectRobots:      cfg.Fetch.RespectRobots,
		InsecureSkipVerify: cfg.Fetch.InsecureSkipVerify,
	}, logger.Named("fetch"))

	feedClient := feed.NewClient(feed.Config{
		URL:       cfg.Feed.URL,
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Feed.Timeout,
	}, logger.Named("feed"))

	logger.Info("services initialized",
		zap.String("snapshot_provider", cfg.Snapshot.Provider),
		zap.String("publish_provider", cfg.Publish.Provider),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		feed:      feedClient,
		store:     store,
		reports:   reports,
		publisher: publisher,
		status:    &Status{},
	}, nil
}

func newSnapshotStore(ctx context.Context, cfg config.SnapshotConfig, logger *zap.Logger) (snapshot.Store, error) {
	switch cfg.Provider {
	case "memory":
		return snapshot.NewMemoryStore(), nil
	case "local":
		logger.Info("using local snapshot store", zap.String("dir", cfg.Local.Dir))
		return snapshot.NewLocalStore(cfg.Local.Dir)
	case "postgres":
		logger.Info("using postgres snapshot store", zap.String("table", cfg.Postgres.Table))
		return snapshot.NewPostgresStore(ctx, snapshot.PostgresConfig{
			DSN:   cfg.Postgres.DSN,
			Table: cfg.Postgres.Table,
		})
	case "gcs":
		logger.Info("using gcs snapshot store", zap.String("bucket", cfg.GCS.Bucket))
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return snapshot.NewGCSStore(client, cfg.GCS.Bucket)
	default:
		return nil, fmt.Errorf("unknown snapshot provider: %s", cfg.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.PublishConfig, logger *zap.Logger) (publish.Publisher, error) {
	switch cfg.Provider {
	case "noop":
		return publish.NewNoop(), nil
	case "memory":
		return publish.NewMemory(), nil
	case "pubsub":
		logger.Info("using pubsub publisher", zap.String("topic", cfg.PubSub.Topic))
		return publish.NewPubSub(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic)
	default:
		return nil, fmt.Errorf("unknown publish provider: %s", cfg.Provider)
	}
}

// Logger returns the shared logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the snapshot store.
func (a *App) Store() snapshot.Store { return a.store }

// Publisher returns the change notification publisher.
func (a *App) Publisher() publish.Publisher { return a.publisher }

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// StartServer launches the operational HTTP server in the background.
func (a *App) StartServer() {
	srv := api.NewServer(a.status.View, a.logger.Named("api"))
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)
	go func() {
		a.logger.Info("starting operational server", zap.String("addr", addr))
		if err := srv.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Error("operational server failed", zap.Error(err))
		}
	}()
	// Give the listener a beat so early CLI exits still surface bind errors.
	time.Sleep(10 * time.Millisecond)
}

// Close shuts the services down and flushes the logger.
func (a *App) Close() {
	a.logger.Info("shutting down services")
	if err := a.store.Close(); err != nil {
		a.logger.Warn("error closing snapshot store", zap.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("error closing publisher", zap.Error(err))
	}
	_ = a.logger.Sync()
}
