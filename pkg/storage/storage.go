//go:generate mockgen -source storage.go -destination ../../internal/mocks/mock_storage.go -package mocks ManifestStore

// Package storage defines the manifest of copied files kept by each run.
package storage

import (
	"context"
	"time"
)

// CopyRecord describes one file the pipeline copied into the destination.
type CopyRecord struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CopiedAt    time.Time `json:"copied_at"`
}

// RunRecord summarizes one completed run.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	Pattern     string    `json:"pattern"`
	Extension   string    `json:"extension"`
	Root        string    `json:"root"`
	Destination string    `json:"destination"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	DirectoriesScouted  int64 `json:"directories_scouted"`
	DirectoriesSearched int64 `json:"directories_searched"`
	Matches             int64 `json:"matches"`
	FilesCopied         int64 `json:"files_copied"`
	BytesCopied         int64 `json:"bytes_copied"`
	Errors              int64 `json:"errors"`
}

// ManifestStore persists what a run copied. Implementations must be safe for
// concurrent use; every copier writes to the same store.
type ManifestStore interface {
	// RecordCopy stores a copy. Recording the same destination twice for one
	// run returns ErrCollision.
	RecordCopy(ctx context.Context, record CopyRecord) error

	// ReadCopy returns ErrNotFound if no copy with that destination was
	// recorded for the run.
	ReadCopy(ctx context.Context, runID, destination string) (*CopyRecord, error)

	// ListCopies returns the run's copies ordered by destination.
	ListCopies(ctx context.Context, runID string) ([]CopyRecord, error)

	// WriteRun stores the run summary. Writing a run id twice returns
	// ErrCollision.
	WriteRun(ctx context.Context, run RunRecord) error

	ReadRun(ctx context.Context, runID string) (*RunRecord, error)

	// IsReady reports whether the store can accept writes.
	IsReady(ctx context.Context) (ReadinessStatus, error)

	// Close closes the datastore and cleans up any residual resources.
	Close()
}

// ReadinessStatus represents the readiness status of the datastore.
type ReadinessStatus struct {
	// Message is a human-friendly status message for the current datastore status.
	Message string

	IsReady bool
}
