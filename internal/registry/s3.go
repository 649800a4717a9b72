package registry

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/imamik/facetctl/internal/platform/s3"
)

const manifestContentType = "application/yaml"

// objectStore is the part of the S3 client the registry uses.
type objectStore interface {
	EnsureBucket(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3Store keeps manifests in an object storage bucket below an optional
// prefix. The bucket is created on first write.
type S3Store struct {
	client objectStore
	bucket string
	prefix string

	mu      sync.Mutex
	ensured bool
}

// NewS3Store returns a backend writing to bucket.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return newS3Store(client, bucket, prefix)
}

func newS3Store(client objectStore, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Location returns the s3:// URL of the store.
func (s *S3Store) Location() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	if err := s.client.EnsureBucket(ctx, s.bucket); err != nil {
		return err
	}
	s.ensured = true
	return nil
}

// Put uploads data to key.
func (s *S3Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	return s.client.PutObject(ctx, s.bucket, path.Join(s.prefix, key), manifestContentType, data)
}

// Get downloads key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.GetObject(ctx, s.bucket, path.Join(s.prefix, key))
	if errors.Is(err, s3.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return data, err
}
