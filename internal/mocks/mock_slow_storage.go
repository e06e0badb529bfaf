package mocks

import (
	"context"
	"time"

	"github.com/openfga/disksearcher/pkg/storage"
)

// slowManifestStore is a proxy to the actual store except the writes are slowed down by writeDelay.
// This allows simulating copiers that are stalled on the manifest while the queues fill up.
type slowManifestStore struct {
	writeDelay time.Duration
	storage.ManifestStore
}

// NewMockSlowManifestStore returns a wrapper of a manifest store that adds artificial delays into the writes.
func NewMockSlowManifestStore(ms storage.ManifestStore, writeDelay time.Duration) storage.ManifestStore {
	return &slowManifestStore{
		writeDelay:    writeDelay,
		ManifestStore: ms,
	}
}

func (m *slowManifestStore) Close() {}

func (m *slowManifestStore) RecordCopy(ctx context.Context, record storage.CopyRecord) error {
	time.Sleep(m.writeDelay)
	return m.ManifestStore.RecordCopy(ctx, record)
}

func (m *slowManifestStore) WriteRun(ctx context.Context, run storage.RunRecord) error {
	time.Sleep(m.writeDelay)
	return m.ManifestStore.WriteRun(ctx, run)
}
