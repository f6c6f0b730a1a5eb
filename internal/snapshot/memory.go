package snapshot

import (
	"context"
	"sync"

	"github.com/civicpie/wardsync/internal/civic"
)

// MemoryStore keeps every saved version in process memory. It backs tests
// and dry runs where persistence is unwanted.
type MemoryStore struct {
	mu       sync.Mutex
	versions []civic.Dataset
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the latest saved dataset.
func (s *MemoryStore) Load(_ context.Context) (civic.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.versions) == 0 {
		return civic.Dataset{}, ErrNoSnapshot
	}
	return copyDataset(s.versions[len(s.versions)-1]), nil
}

// Save appends a copy of the dataset as the newest version.
func (s *MemoryStore) Save(_ context.Context, ds civic.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions = append(s.versions, copyDataset(ds))
	return nil
}

// Versions returns how many datasets have been saved.
func (s *MemoryStore) Versions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.versions)
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// copyDataset deep-copies so callers cannot mutate stored state through
// shared slices.
func copyDataset(ds civic.Dataset) civic.Dataset {
	out := ds
	out.Wards = make([]civic.WardRecord, len(ds.Wards))
	copy(out.Wards, ds.Wards)
	for i := range out.Wards {
		out.Wards[i].Neighborhoods = append([]string(nil), out.Wards[i].Neighborhoods...)
	}
	return out
}
