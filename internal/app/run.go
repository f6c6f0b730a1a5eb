package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/crawl"
	"github.com/civicpie/wardsync/internal/diff"
	"github.com/civicpie/wardsync/internal/feed"
	"github.com/civicpie/wardsync/internal/metrics"
	"github.com/civicpie/wardsync/internal/snapshot"
)

// SyncSummary is the per-run accounting of one feed sync.
type SyncSummary struct {
	RunID       string    `json:"run_id"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`
	FeedRecords int       `json:"feed_records"`
	Skipped     int       `json:"skipped"`
	Version     int64     `json:"version"`
	Changes     int       `json:"changes"`
	ReportPath  string    `json:"report_path,omitempty"`
}

// RunCrawl executes the crawl pipeline and writes its entity records and
// run summary to the report directory.
func (a *App) RunCrawl(ctx context.Context) (*crawl.Result, error) {
	runID := uuid.NewString()
	logger := a.logger.Named("crawl").With(zap.String("run_id", runID))
	logger.Info("starting crawl run", zap.String("directory_url", a.cfg.Crawl.DirectoryURL))

	pipeline := crawl.New(crawl.Config{
		DirectoryURL: a.cfg.Crawl.DirectoryURL,
		Concurrency:  a.cfg.Crawl.Concurrency,
		QueueDepth:   a.cfg.Crawl.QueueDepth,
	}, a.fetcher, logger)

	result, runErr := pipeline.Run(ctx)
	a.status.setCrawl(result.Summary)

	if path, err := a.reports.WriteRunSummary("crawl", result); err != nil {
		logger.Warn("failed to write crawl report", zap.Error(err))
	} else {
		logger.Info("crawl report written", zap.String("path", path))
	}

	if runErr != nil {
		return result, fmt.Errorf("crawl run %s: %w", runID, runErr)
	}
	logger.Info("crawl run complete",
		zap.Int("entities", result.Summary.Entities),
		zap.Duration("duration", result.Summary.Finished.Sub(result.Summary.Started)),
	)
	return result, nil
}

// RunSync fetches the authoritative feed, normalizes it, diffs it against
// the previous snapshot, persists the new version, writes the change
// report, and publishes a notification when anything changed.
func (a *App) RunSync(ctx context.Context) (*SyncSummary, error) {
	runID := uuid.NewString()
	logger := a.logger.Named("sync").With(zap.String("run_id", runID))
	summary := SyncSummary{RunID: runID, Started: time.Now().UTC()}

	raw, err := a.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync run %s: %w", runID, err)
	}
	summary.FeedRecords = len(raw)

	neighborhoods, err := feed.LoadNeighborhoods(a.cfg.Feed.NeighborhoodsFile)
	if err != nil {
		return nil, fmt.Errorf("sync run %s: %w", runID, err)
	}

	records, skipped := feed.Normalize(raw, neighborhoods, logger)
	summary.Skipped = skipped

	previous, err := a.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, snapshot.ErrNoSnapshot) {
			return nil, fmt.Errorf("sync run %s: load previous snapshot: %w", runID, err)
		}
		logger.Info("no previous snapshot; treating baseline as empty")
		previous = civic.Dataset{}
	}

	report := diff.Diff(previous.Wards, records)
	summary.Changes = len(report.Changes)

	dataset := civic.Dataset{
		Version:     previous.Version + 1,
		GeneratedAt: time.Now().UTC(),
		Wards:       records,
	}
	if err := a.store.Save(ctx, dataset); err != nil {
		return nil, fmt.Errorf("sync run %s: save snapshot: %w", runID, err)
	}
	summary.Version = dataset.Version
	metrics.SetSnapshotVersion(dataset.Version)

	path, err := a.reports.WriteChangeReport(report)
	if err != nil {
		logger.Warn("failed to write change report", zap.Error(err))
	} else {
		summary.ReportPath = path
	}

	if !report.Empty() {
		id, err := a.publisher.Publish(ctx, "ward-changes", report)
		if err != nil {
			logger.Warn("failed to publish change notification", zap.Error(err))
		} else {
			logger.Info("change notification published", zap.String("message_id", id))
		}
	}

	summary.Finished = time.Now().UTC()
	metrics.ObserveRunDuration("sync", summary.Finished.Sub(summary.Started))
	a.status.setSync(summary)

	if _, err := a.reports.WriteRunSummary("sync", summary); err != nil {
		logger.Warn("failed to write sync summary", zap.Error(err))
	}

	logger.Info("sync run complete",
		zap.Int64("version", summary.Version),
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
		zap.Int("changes", summary.Changes),
	)
	return &summary, nil
}
