package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicpie/wardsync/internal/civic"
	"github.com/civicpie/wardsync/internal/fetch"
	"github.com/civicpie/wardsync/internal/metrics"
)

func init() {
	metrics.Init()
}

// fakeFetcher serves canned pages keyed by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
	hits  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (fetch.Page, error) {
	f.mu.Lock()
	f.hits = append(f.hits, url)
	f.mu.Unlock()

	if err, ok := f.errs[url]; ok {
		return fetch.Page{}, err
	}
	body, ok := f.pages[url]
	if !ok {
		return fetch.Page{}, &fetch.Error{Kind: fetch.KindHTTPStatus, URL: url, StatusCode: 404, Err: errors.New("not found")}
	}
	return fetch.Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte(body)}, nil
}

func (f *fakeFetcher) hitCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, hit := range f.hits {
		if hit == url {
			n++
		}
	}
	return n
}

const directoryURL = "https://city.test/wards"

func wardSiteHTML(ward int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<html><head><title>Ward %d Office</title></head><body>`, ward)
	sb.WriteString(`<a href="/about">About</a>`)
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, `<div class="news-item"><h3>News %d</h3><p>Summary</p></div>`, i)
	}
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&sb, `<div class="meeting"><h3>Meeting %d</h3></div>`, i)
	}
	sb.WriteString(`</body></html>`)
	return sb.String()
}

func newTestFetcher() *fakeFetcher {
	pages := map[string]string{
		directoryURL: `<html><body>
			<a class="ward-link" href="/ward/1">Ward 1</a>
			<a class="ward-link" href="/ward/2">Ward 2</a>
			<a class="ward-link" href="/ward/3">Ward 3</a>
		</body></html>`,

		"https://city.test/ward/1": `<html><body>
			<h1 class="alderman-name">Alder One</h1>
			<div class="office-phone">555-0001</div>
			<a class="alderman-website" href="https://ward1.test/">Site</a>
		</body></html>`,
		// Ward 2 has no external site link; it stays partial.
		"https://city.test/ward/2": `<html><body>
			<h1 class="alderman-name">Alder Two</h1>
		</body></html>`,
		"https://city.test/ward/3": `<html><body>
			<h1 class="alderman-name">Alder Three</h1>
			<a class="alderman-website" href="https://ward3.test/">Site</a>
		</body></html>`,

		"https://ward1.test/":      wardSiteHTML(1),
		"https://ward3.test/":      wardSiteHTML(3),
		"https://ward1.test/about": `<html><body><h1>About Ward 1</h1><main>History of ward one.</main></body></html>`,
		"https://ward3.test/about": `<html><body><h1>About Ward 3</h1><main>History of ward three.</main></body></html>`,
	}
	return &fakeFetcher{pages: pages, errs: map[string]error{}}
}

func TestPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	pipeline := New(Config{DirectoryURL: directoryURL, Concurrency: 3, QueueDepth: 16}, fetcher, zap.NewNop())

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Entities, 3)

	byWard := make(map[int]EntityRecord)
	for _, rec := range result.Entities {
		byWard[rec.Ward] = rec
	}

	one := byWard[1]
	require.Equal(t, "Alder One", one.Fields["official_name"])
	require.Equal(t, "555-0001", one.Fields["office_phone"])
	require.Equal(t, "https://ward1.test/", one.Fields["website"])
	require.Equal(t, "Ward 1 Office", one.Fields["site_title"])
	require.Equal(t, "About Ward 1", one.Fields["title_about"])
	require.Len(t, one.News, 10)
	require.Len(t, one.Meetings, 10)

	// Ward 2 published no external link: profile fields only.
	two := byWard[2]
	require.Equal(t, "Alder Two", two.Fields["official_name"])
	require.NotContains(t, two.Fields, "website")
	require.NotContains(t, two.Fields, "site_title")
	require.Empty(t, two.News)

	three := byWard[3]
	require.Equal(t, "Alder Three", three.Fields["official_name"])
	require.Len(t, three.News, 10)

	require.Equal(t, 1, result.Summary.Stages[civic.StageDirectory].Succeeded)
	require.Equal(t, 3, result.Summary.Stages[civic.StageEntity].Succeeded)
	require.Equal(t, 2, result.Summary.Stages[civic.StageSite].Succeeded)
	require.Equal(t, 2, result.Summary.Stages[civic.StageSubpage].Succeeded)
	require.Empty(t, result.Summary.FatalError)
}

func TestPipelineDirectoryFailureIsFatal(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	fetcher.errs[directoryURL] = &fetch.Error{Kind: fetch.KindNetwork, URL: directoryURL, Err: errors.New("connection refused")}

	pipeline := New(Config{DirectoryURL: directoryURL, Concurrency: 2, QueueDepth: 16}, fetcher, zap.NewNop())
	result, err := pipeline.Run(context.Background())

	require.Error(t, err)
	var de *DiscoveryError
	require.ErrorAs(t, err, &de)
	require.Equal(t, directoryURL, de.URL)
	require.Empty(t, result.Entities)
	require.Equal(t, 1, result.Summary.Stages[civic.StageDirectory].Failed)
}

func TestPipelineTaskFailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	fetcher.errs["https://city.test/ward/2"] = &fetch.Error{Kind: fetch.KindNetwork, Err: errors.New("timeout")}

	pipeline := New(Config{DirectoryURL: directoryURL, Concurrency: 2, QueueDepth: 16}, fetcher, zap.NewNop())
	result, err := pipeline.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.Stages[civic.StageEntity].Failed)
	require.Equal(t, 2, result.Summary.Stages[civic.StageEntity].Succeeded)

	byWard := make(map[int]EntityRecord)
	for _, rec := range result.Entities {
		byWard[rec.Ward] = rec
	}
	require.NotContains(t, byWard, 2)
	require.Contains(t, byWard, 1)
	require.Contains(t, byWard, 3)
}

func TestPipelineCountsRobotsDenials(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	fetcher.errs["https://ward1.test/"] = &fetch.Error{Kind: fetch.KindRobots, Err: errors.New("disallowed")}

	pipeline := New(Config{DirectoryURL: directoryURL, Concurrency: 2, QueueDepth: 16}, fetcher, zap.NewNop())
	result, err := pipeline.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.Stages[civic.StageSite].RobotsDenied)
	require.Zero(t, result.Summary.Stages[civic.StageSite].Failed)

	// The entity keeps its profile fields even though the site was denied.
	byWard := make(map[int]EntityRecord)
	for _, rec := range result.Entities {
		byWard[rec.Ward] = rec
	}
	require.Equal(t, "Alder One", byWard[1].Fields["official_name"])
	require.NotContains(t, byWard[1].Fields, "site_title")
}

func TestPipelineFetchesEachURLOnce(t *testing.T) {
	t.Parallel()

	fetcher := newTestFetcher()
	pipeline := New(Config{DirectoryURL: directoryURL, Concurrency: 4, QueueDepth: 16}, fetcher, zap.NewNop())
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	for url := range fetcher.pages {
		require.LessOrEqual(t, fetcher.hitCount(url), 1, "url %s fetched more than once", url)
	}
}
