package app

import (
	"sync"

	"github.com/civicpie/wardsync/internal/crawl"
)

// Status tracks the most recent run summaries for the /status endpoint.
type Status struct {
	mu        sync.RWMutex
	lastCrawl *crawl.Summary
	lastSync  *SyncSummary
}

// StatusView is the JSON document served at /status.
type StatusView struct {
	LastCrawl *crawl.Summary `json:"last_crawl,omitempty"`
	LastSync  *SyncSummary   `json:"last_sync,omitempty"`
}

// View returns a point-in-time copy of the status.
func (s *Status) View() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusView{LastCrawl: s.lastCrawl, LastSync: s.lastSync}
}

func (s *Status) setCrawl(summary crawl.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCrawl = &summary
}

func (s *Status) setSync(summary SyncSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = &summary
}
