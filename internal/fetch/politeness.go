package fetch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/civicpie/wardsync/internal/metrics"
)

// hostGate serializes fetches per host and spaces them by at least the
// configured minimum interval. The per-host mutex is held for the duration
// of the request, so two tasks targeting the same host never execute
// concurrently; different hosts proceed independently.
type hostGate struct {
	mu       sync.Mutex
	hosts    map[string]*hostSlot
	interval time.Duration
}

type hostSlot struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

func newHostGate(interval time.Duration) *hostGate {
	return &hostGate{
		hosts:    make(map[string]*hostSlot),
		interval: interval,
	}
}

// acquire blocks until the host's politeness window opens, then returns a
// release func the caller must invoke once the request has completed.
func (g *hostGate) acquire(ctx context.Context, host string) (func(), error) {
	slot := g.slot(host)

	slot.mu.Lock()
	start := time.Now()
	if err := slot.limiter.Wait(ctx); err != nil {
		slot.mu.Unlock()
		return nil, fmt.Errorf("politeness wait for %s: %w", host, err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(host, waited)
	}
	return slot.mu.Unlock, nil
}

func (g *hostGate) slot(host string) *hostSlot {
	key := strings.ToLower(host)
	g.mu.Lock()
	defer g.mu.Unlock()
	slot, ok := g.hosts[key]
	if !ok {
		limit := rate.Inf
		if g.interval > 0 {
			limit = rate.Every(g.interval)
		}
		slot = &hostSlot{limiter: rate.NewLimiter(limit, 1)}
		g.hosts[key] = slot
	}
	return slot
}
