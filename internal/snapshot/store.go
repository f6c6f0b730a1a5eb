// Package snapshot persists versioned publications of the canonical ward
// dataset. Every store implementation writes a full dataset atomically so a
// concurrent reader observes either the previous version or the new one,
// never a partial write.
package snapshot

import (
	"context"
	"errors"

	"github.com/civicpie/wardsync/internal/civic"
)

// ErrNoSnapshot is returned by Load when no dataset has been saved yet.
// Callers treat it as an empty baseline, not a failure.
var ErrNoSnapshot = errors.New("no snapshot available")

// Store loads and saves versioned datasets.
type Store interface {
	// Load returns the most recently saved dataset or ErrNoSnapshot.
	Load(ctx context.Context) (civic.Dataset, error)
	// Save persists the dataset under its version. Versions are assigned
	// by the caller and must be strictly increasing.
	Save(ctx context.Context, ds civic.Dataset) error
	// Close releases any held resources.
	Close() error
}
