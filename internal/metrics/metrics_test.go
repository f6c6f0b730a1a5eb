package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeHost(t *testing.T) {
	t.Parallel()

	require.Equal(t, "www.chicago.gov", SanitizeHost("https://www.chicago.gov/city/en/about/wards.html"))
	require.Equal(t, "example.org", SanitizeHost("EXAMPLE.org"))
	require.Equal(t, "unknown", SanitizeHost(""))
	require.Equal(t, "unknown", SanitizeHost("http://"))
}

func TestObserveHelpersAfterInit(t *testing.T) {
	Init()
	// Init is idempotent.
	Init()

	ObserveCrawlPage("entity", "success", 1024, "https://example.org/x")
	ObserveRateLimitDelay("example.org", 50*time.Millisecond)
	ObserveFetchRetry()
	ObserveRobotsDenied("example.org")
	ObserveFeedRecord("normalized")
	ObserveFeedRecord("skipped")
	SetSnapshotVersion(4)
	ObserveChanges("modified", 2)
	ObserveChanges("removed", 0)
	ObserveDroppedLinks("directory", 1)
	IncActiveWorkers()
	DecActiveWorkers()
	ObserveRunDuration("sync", time.Second)

	require.NotNil(t, Handler())
}
