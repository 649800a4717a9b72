package registry

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// DryRunStore writes nothing. Reads always miss.
type DryRunStore struct {
	log logr.Logger
}

// NewDryRunStore returns a backend that only logs.
func NewDryRunStore(log logr.Logger) *DryRunStore {
	return &DryRunStore{log: log}
}

// Location describes the store.
func (d *DryRunStore) Location() string { return "dry run" }

// Put logs the write it would have done.
func (d *DryRunStore) Put(_ context.Context, key string, data []byte) error {
	d.log.V(1).Info("would write manifest", "key", key, "bytes", len(data))
	return nil
}

// Get always reports ErrNotFound.
func (d *DryRunStore) Get(_ context.Context, key string) ([]byte, error) {
	return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
}
