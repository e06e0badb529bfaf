// Package memory provides an in-process [storage.ManifestStore].
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"

	"github.com/openfga/disksearcher/pkg/storage"
)

var tracer = otel.Tracer("disksearcher/pkg/storage/memory")

type copyKey struct {
	runID       string
	destination string
}

// MemoryBackend keeps every record in maps guarded by a single mutex.
type MemoryBackend struct {
	mu     sync.RWMutex
	copies map[copyKey]storage.CopyRecord
	runs   map[string]storage.RunRecord
}

var _ storage.ManifestStore = (*MemoryBackend)(nil)

func New() *MemoryBackend {
	return &MemoryBackend{
		copies: make(map[copyKey]storage.CopyRecord),
		runs:   make(map[string]storage.RunRecord),
	}
}

// RecordCopy see [storage.ManifestStore].RecordCopy.
func (s *MemoryBackend) RecordCopy(ctx context.Context, record storage.CopyRecord) error {
	_, span := tracer.Start(ctx, "memory.RecordCopy")
	defer span.End()

	if err := storage.ValidateCopy(record); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := copyKey{record.RunID, record.Destination}
	if _, ok := s.copies[k]; ok {
		return storage.ErrCollision
	}
	s.copies[k] = record
	return nil
}

// ReadCopy see [storage.ManifestStore].ReadCopy.
func (s *MemoryBackend) ReadCopy(ctx context.Context, runID, destination string) (*storage.CopyRecord, error) {
	_, span := tracer.Start(ctx, "memory.ReadCopy")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.copies[copyKey{runID, destination}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &record, nil
}

// ListCopies see [storage.ManifestStore].ListCopies.
func (s *MemoryBackend) ListCopies(ctx context.Context, runID string) ([]storage.CopyRecord, error) {
	_, span := tracer.Start(ctx, "memory.ListCopies")
	defer span.End()

	s.mu.RLock()
	records := make([]storage.CopyRecord, 0)
	for k, record := range s.copies {
		if k.runID == runID {
			records = append(records, record)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(records, func(a, b storage.CopyRecord) int {
		return strings.Compare(a.Destination, b.Destination)
	})
	return records, nil
}

// WriteRun see [storage.ManifestStore].WriteRun.
func (s *MemoryBackend) WriteRun(ctx context.Context, run storage.RunRecord) error {
	_, span := tracer.Start(ctx, "memory.WriteRun")
	defer span.End()

	if err := storage.ValidateRun(run); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.RunID]; ok {
		return storage.ErrCollision
	}
	s.runs[run.RunID] = run
	return nil
}

// ReadRun see [storage.ManifestStore].ReadRun.
func (s *MemoryBackend) ReadRun(ctx context.Context, runID string) (*storage.RunRecord, error) {
	_, span := tracer.Start(ctx, "memory.ReadRun")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &run, nil
}

// IsReady see [storage.ManifestStore].IsReady.
func (s *MemoryBackend) IsReady(context.Context) (storage.ReadinessStatus, error) {
	return storage.ReadinessStatus{IsReady: true}, nil
}

// Close does not do anything for [MemoryBackend].
func (s *MemoryBackend) Close() {}
