// Package feed fetches and normalizes the authoritative ward dataset
// published on the city data portal.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultURL is the Socrata resource for Chicago ward offices.
const DefaultURL = "https://data.cityofchicago.org/resource/htai-wnw4.json"

const maxFeedBytes = 16 << 20

// Config controls the feed client.
type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
}

// Client retrieves raw feed records. The feed endpoint is a single trusted
// JSON document, so it bypasses the crawl politeness machinery.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient builds a feed client with sane fallbacks for zero-value config.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Fetch downloads the feed and decodes it into raw records. Any failure
// here fails the whole sync; there is no partial feed.
func (c *Client) Fetch(ctx context.Context) ([]RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d from %s", resp.StatusCode, c.cfg.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	var records []RawRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	c.logger.Info("feed fetched",
		zap.String("url", c.cfg.URL),
		zap.Int("records", len(records)),
		zap.Duration("duration", time.Since(start)),
	)
	return records, nil
}
