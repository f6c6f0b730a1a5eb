// Package fetch implements the politeness-gated, retried, robots-aware
// HTTP fetch client used by every crawl stage.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/civicpie/wardsync/internal/metrics"
)

// Config controls fetch client behavior.
type Config struct {
	UserAgent       string
	Timeout         time.Duration
	MinHostInterval time.Duration
	MaxAttempts     int
	RespectRobots   bool
	// InsecureSkipVerify disables TLS certificate verification. This is a
	// security-relevant bypass: it is never the default and enabling it is
	// logged loudly at startup.
	InsecureSkipVerify bool
}

// Page is the result of one successful fetch.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Client issues rate-limited, retried HTTP fetches. It owns the per-host
// politeness state; workers share one Client and never reach into it
// directly.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
	transport     http.RoundTripper
	gate          *hostGate
	robots        robotsPolicy
	retry         *retryPolicy
	logger        *zap.Logger
}

// NewClient builds a Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	transport := newHTTPTransport(cfg.InsecureSkipVerify)
	if cfg.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is DISABLED by configuration; " +
			"all fetched content is unauthenticated")
	}

	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; omitting it keeps the collector synchronous, which is
	// also the collector default.
	base := colly.NewCollector(colly.AllowURLRevisit())
	base.WithTransport(transport)
	// Robots enforcement happens in Fetch before any request is issued, so
	// the disallowed case never reaches the network layer.
	base.IgnoreRobotsTxt = true

	var robots robotsPolicy = allowAllPolicy{}
	if cfg.RespectRobots {
		robots = newRobotsEnforcer(transport, cfg.UserAgent, logger)
	}

	return &Client{
		cfg:           cfg,
		baseCollector: base,
		transport:     transport,
		gate:          newHostGate(cfg.MinHostInterval),
		robots:        robots,
		retry:         newRetryPolicy(cfg.MaxAttempts),
		logger:        logger,
	}
}

// Fetch retrieves a single page, honoring robots directives, per-host
// politeness, and bounded retries. The returned error carries a Kind the
// caller can inspect via KindOf.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return Page{}, &Error{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("invalid url: %w", err)}
	}

	if !c.robots.Allowed(ctx, parsed) {
		metrics.ObserveRobotsDenied(parsed.Host)
		return Page{}, &Error{Kind: KindRobots, URL: rawURL, Err: errors.New("disallowed by robots.txt")}
	}

	var lastErr error
	for attempt := 0; attempt < c.retry.maxAttempts; attempt++ {
		if attempt > 0 {
			metrics.ObserveFetchRetry()
			if err := c.retry.sleep(ctx, attempt-1); err != nil {
				return Page{}, err
			}
		}

		page, err := c.fetchOnce(ctx, rawURL, parsed.Host)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !c.retry.shouldRetry(err, attempt) {
			break
		}
		c.logger.Debug("retrying fetch",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return Page{}, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, rawURL, host string) (Page, error) {
	release, err := c.gate.acquire(ctx, host)
	if err != nil {
		return Page{}, err
	}

	collector := c.baseCollector.Clone()
	collector.WithTransport(c.transport)
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(c.cfg.Timeout)

	var (
		page       Page
		fetchErr   error
		statusCode int
	)
	start := time.Now()

	collector.OnResponse(func(r *colly.Response) {
		page = Page{
			URL:        rawURL,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		fetchErr = err
	})

	// The gate stays held until Visit returns, even when the caller's
	// context is canceled first, so an abandoned in-flight request can
	// never overlap the next same-host fetch.
	done := make(chan error, 1)
	go func() {
		defer release()
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return Page{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr := <-done:
		switch {
		case fetchErr != nil:
			return Page{}, classify(rawURL, statusCode, fetchErr)
		case visitErr != nil:
			return Page{}, classify(rawURL, statusCode, visitErr)
		case page.StatusCode == 0:
			return Page{}, classify(rawURL, 0, errors.New("fetch produced no response"))
		default:
			return page, nil
		}
	}
}

func newHTTPTransport(insecureSkipVerify bool) *http.Transport {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
	if insecureSkipVerify {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- deliberate, logged opt-in
	}
	return t
}
