package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/civicpie/wardsync/internal/civic"
)

const gcsPointerObject = "snapshots/current.json"

// GCSStore persists datasets as versioned objects in a bucket with a
// pointer object naming the live version. GCS object writes are atomic on
// Close, so the pointer flip is the publication point.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore wraps an existing storage client.
func NewGCSStore(client *storage.Client, bucket string) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Load follows the pointer object to the live version.
func (s *GCSStore) Load(ctx context.Context) (civic.Dataset, error) {
	ptrData, err := s.readObject(ctx, gcsPointerObject)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return civic.Dataset{}, ErrNoSnapshot
		}
		return civic.Dataset{}, fmt.Errorf("read snapshot pointer: %w", err)
	}
	var ptr pointerFile
	if err := json.Unmarshal(ptrData, &ptr); err != nil {
		return civic.Dataset{}, fmt.Errorf("decode snapshot pointer: %w", err)
	}

	payload, err := s.readObject(ctx, gcsVersionObject(ptr.Version))
	if err != nil {
		return civic.Dataset{}, fmt.Errorf("read snapshot v%d: %w", ptr.Version, err)
	}
	var ds civic.Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return civic.Dataset{}, fmt.Errorf("decode snapshot v%d: %w", ptr.Version, err)
	}
	return ds, nil
}

// Save uploads the versioned object first, then flips the pointer.
func (s *GCSStore) Save(ctx context.Context, ds civic.Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.writeObject(ctx, gcsVersionObject(ds.Version), payload); err != nil {
		return fmt.Errorf("write snapshot v%d: %w", ds.Version, err)
	}

	ptr, err := json.Marshal(pointerFile{Version: ds.Version})
	if err != nil {
		return fmt.Errorf("encode snapshot pointer: %w", err)
	}
	if err := s.writeObject(ctx, gcsPointerObject, ptr); err != nil {
		return fmt.Errorf("write snapshot pointer: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) readObject(ctx context.Context, name string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSStore) writeObject(ctx context.Context, name string, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		closeErr := w.Close()
		if closeErr != nil {
			return fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

func gcsVersionObject(version int64) string {
	return fmt.Sprintf("snapshots/v%08d.json", version)
}
