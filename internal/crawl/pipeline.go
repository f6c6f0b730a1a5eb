package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/extract"
	"github.com/civicpie/wardsync/internal/fetch"
	"github.com/civicpie/wardsync/internal/metrics"
)

// Fetcher is the slice of the fetch client the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (fetch.Page, error)
}

// Config controls one crawl run.
type Config struct {
	DirectoryURL string
	Concurrency  int
	QueueDepth   int
}

// DiscoveryError marks the run-fatal case: the directory page could not be
// fetched, so no entities are enumerable.
type DiscoveryError struct {
	URL string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("directory discovery failed for %s: %v", e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// StageCounts reports task outcomes for one stage.
type StageCounts struct {
	Succeeded    int `json:"succeeded"`
	Failed       int `json:"failed"`
	RobotsDenied int `json:"robots_denied"`
}

// Summary is the per-run accounting a completed run always reports,
// whether or not it hit a fatal error.
type Summary struct {
	Started      time.Time                    `json:"started"`
	Finished     time.Time                    `json:"finished"`
	Stages       map[civic.Stage]*StageCounts `json:"stages"`
	Entities     int                          `json:"entities"`
	DroppedLinks int                          `json:"dropped_links"`
	FatalError   string                       `json:"fatal_error,omitempty"`
}

// Result is the product of one crawl run: the accumulated entity records
// plus the run summary. Partial records survive a canceled or failed run.
type Result struct {
	Entities []EntityRecord `json:"entities"`
	Summary  Summary        `json:"summary"`
}

// Pipeline wires the fetch client, the extraction rules, the frontier, and
// the accumulator into one cancellable run.
type Pipeline struct {
	cfg     Config
	fetcher Fetcher
	logger  *zap.Logger
}

// New constructs a Pipeline.
func New(cfg Config, fetcher Fetcher, logger *zap.Logger) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Pipeline{cfg: cfg, fetcher: fetcher, logger: logger}
}

// Run executes the crawl to completion or cancellation. Task-local
// failures never abort sibling tasks; only a directory-stage failure is
// fatal, and even then the partial result is returned alongside the error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	front := newFrontier(p.cfg.QueueDepth)
	acc := newAccumulator()
	state := &runState{
		summary: Summary{
			Started: time.Now().UTC(),
			Stages:  make(map[civic.Stage]*StageCounts),
		},
	}
	for _, stage := range []civic.Stage{civic.StageDirectory, civic.StageEntity, civic.StageSite, civic.StageSubpage} {
		state.summary.Stages[stage] = &StageCounts{}
	}

	front.enqueue(runCtx, DirectoryTask(p.cfg.DirectoryURL))

	g, workerCtx := errgroup.WithContext(runCtx)
	for i := 0; i < p.cfg.Concurrency; i++ {
		worker := p.logger.Named("worker").With(zap.Int("index", i))
		g.Go(func() error {
			return p.runWorker(workerCtx, cancel, front, acc, state, worker)
		})
	}
	runErr := g.Wait()

	state.mu.Lock()
	state.summary.Finished = time.Now().UTC()
	state.summary.Entities = len(acc.entities)
	summary := state.summary
	fatal := state.fatal
	state.mu.Unlock()

	result := &Result{Entities: acc.records(), Summary: summary}
	metrics.ObserveRunDuration("crawl", summary.Finished.Sub(summary.Started))

	switch {
	case fatal != nil:
		return result, fatal
	case runErr != nil && !errors.Is(runErr, context.Canceled):
		return result, runErr
	case ctx.Err() != nil:
		return result, fmt.Errorf("crawl canceled: %w", ctx.Err())
	default:
		return result, nil
	}
}

// runState guards the mutable run accounting shared by workers.
type runState struct {
	mu      sync.Mutex
	summary Summary
	fatal   *DiscoveryError
}

func (p *Pipeline) runWorker(
	ctx context.Context,
	cancel context.CancelFunc,
	front *frontier,
	acc *accumulator,
	state *runState,
	logger *zap.Logger,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task, ok := <-front.tasks:
			if !ok {
				return nil
			}
			p.processTask(ctx, cancel, task, front, acc, state, logger)
			if front.done(task) {
				logger.Debug("entity crawl complete", zap.Int("ward", task.Ward))
			}
		}
	}
}

func (p *Pipeline) processTask(
	ctx context.Context,
	cancel context.CancelFunc,
	task Task,
	front *frontier,
	acc *accumulator,
	state *runState,
	logger *zap.Logger,
) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	page, err := p.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		p.recordFailure(cancel, task, err, state, logger)
		return
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		p.recordFailure(cancel, task, fmt.Errorf("parse html: %w", err), state, logger)
		return
	}

	ex := p.runRule(task, page, doc)
	acc.merge(ex)
	metrics.ObserveDroppedLinks(string(task.Stage), ex.DroppedLinks)

	for _, next := range successors(task, ex) {
		front.enqueue(ctx, next)
	}

	state.mu.Lock()
	state.summary.Stages[task.Stage].Succeeded++
	state.summary.DroppedLinks += ex.DroppedLinks
	state.mu.Unlock()
	metrics.ObserveCrawlPage(string(task.Stage), "success", len(page.Body), page.FinalURL)

	logger.Debug("task processed",
		zap.String("stage", string(task.Stage)),
		zap.String("url", task.URL),
		zap.Int("ward", task.Ward),
		zap.Int("links", len(ex.Links)),
	)
}

// runRule dispatches the page to its stage's extraction rule. The final
// URL (post-redirect) is the base for relative link resolution.
func (p *Pipeline) runRule(task Task, page fetch.Page, doc *goquery.Document) extract.RawExtraction {
	base := page.FinalURL
	if base == "" {
		base = task.URL
	}
	switch task.Stage {
	case civic.StageDirectory:
		return extract.Directory(base, doc)
	case civic.StageEntity:
		return extract.EntityPage(task.Ward, base, doc)
	case civic.StageSite:
		return extract.Site(task.Ward, base, doc)
	default:
		return extract.Subpage(task.Ward, task.PageType, doc)
	}
}

// recordFailure applies the failure policy: robots denials and fetch errors
// mark that sub-result absent and the run continues, except at the
// directory stage where the run has nothing to enumerate and aborts.
func (p *Pipeline) recordFailure(
	cancel context.CancelFunc,
	task Task,
	err error,
	state *runState,
	logger *zap.Logger,
) {
	outcome := "failed"
	state.mu.Lock()
	if fetch.IsRobotsDenied(err) {
		state.summary.Stages[task.Stage].RobotsDenied++
		outcome = "robots_denied"
	} else {
		state.summary.Stages[task.Stage].Failed++
	}
	fatal := task.Stage == civic.StageDirectory
	if fatal && state.fatal == nil {
		state.fatal = &DiscoveryError{URL: task.URL, Err: err}
		state.summary.FatalError = state.fatal.Error()
	}
	state.mu.Unlock()

	metrics.ObserveCrawlPage(string(task.Stage), outcome, 0, task.URL)

	if fatal {
		logger.Error("directory discovery failed; aborting run",
			zap.String("url", task.URL),
			zap.Error(err),
		)
		cancel()
		return
	}
	logger.Warn("task failed; continuing",
		zap.String("stage", string(task.Stage)),
		zap.String("url", task.URL),
		zap.Int("ward", task.Ward),
		zap.Error(err),
	)
}
