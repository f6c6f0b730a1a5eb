package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/civicpie/wardsync/internal/civic"
)

const currentPointer = "current.json"

// LocalStore persists datasets as versioned JSON files under a base
// directory, with a current.json pointer naming the latest version.
// Writes go through a temp file plus rename so a crash mid-write never
// corrupts the pointer or a published version.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates the base directory if needed and verifies it is
// writable.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	probe := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(probe, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("snapshot directory is not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		return nil, fmt.Errorf("clean up probe file: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

type pointerFile struct {
	Version int64 `json:"version"`
}

// Load reads the current pointer and then the version it names.
func (s *LocalStore) Load(_ context.Context) (civic.Dataset, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, currentPointer))
	if err != nil {
		if os.IsNotExist(err) {
			return civic.Dataset{}, ErrNoSnapshot
		}
		return civic.Dataset{}, fmt.Errorf("read snapshot pointer: %w", err)
	}
	var ptr pointerFile
	if err := json.Unmarshal(data, &ptr); err != nil {
		return civic.Dataset{}, fmt.Errorf("decode snapshot pointer: %w", err)
	}

	payload, err := os.ReadFile(filepath.Join(s.baseDir, versionFile(ptr.Version)))
	if err != nil {
		return civic.Dataset{}, fmt.Errorf("read snapshot v%d: %w", ptr.Version, err)
	}
	var ds civic.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return civic.Dataset{}, fmt.Errorf("decode snapshot v%d: %w", ptr.Version, err)
	}
	return ds, nil
}

// Save writes the versioned file first and flips the pointer last, so the
// pointer always names a fully written version.
func (s *LocalStore) Save(_ context.Context, ds civic.Dataset) error {
	payload, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.writeAtomic(versionFile(ds.Version), payload); err != nil {
		return fmt.Errorf("write snapshot v%d: %w", ds.Version, err)
	}

	ptr, err := json.Marshal(pointerFile{Version: ds.Version})
	if err != nil {
		return fmt.Errorf("encode snapshot pointer: %w", err)
	}
	if err := s.writeAtomic(currentPointer, ptr); err != nil {
		return fmt.Errorf("write snapshot pointer: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *LocalStore) Close() error { return nil }

func (s *LocalStore) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(s.baseDir, name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(s.baseDir, name)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func versionFile(version int64) string {
	return fmt.Sprintf("snapshot-v%08d.json", version)
}
