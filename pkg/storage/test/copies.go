package test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/openfga/disksearcher/pkg/storage"
)

func RecordAndReadCopyTest(t *testing.T, ds storage.ManifestStore) {
	ctx := context.Background()
	runID := newRunID(t)

	record := storage.CopyRecord{
		RunID:       runID,
		Source:      "/root/A/report_final.txt",
		Destination: "/dest/report_final.txt",
		Size:        42,
		Checksum:    "00000000deadbeef",
		CopiedAt:    now(),
	}
	require.NoError(t, ds.RecordCopy(ctx, record))

	got, err := ds.ReadCopy(ctx, runID, record.Destination)
	require.NoError(t, err)
	if diff := cmp.Diff(record, *got, cmpOpts...); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	_, err = ds.ReadCopy(ctx, runID, "/dest/missing.txt")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = ds.ReadCopy(ctx, newRunID(t), record.Destination)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func RecordCopyCollisionTest(t *testing.T, ds storage.ManifestStore) {
	ctx := context.Background()
	runID := newRunID(t)

	record := storage.CopyRecord{
		RunID:       runID,
		Source:      "/root/A/dup.txt",
		Destination: "/dest/dup.txt",
		CopiedAt:    now(),
	}
	require.NoError(t, ds.RecordCopy(ctx, record))

	record.Source = "/root/B/dup.txt"
	require.ErrorIs(t, ds.RecordCopy(ctx, record), storage.ErrCollision)

	// the same destination in another run is a different copy
	record.RunID = newRunID(t)
	require.NoError(t, ds.RecordCopy(ctx, record))
}

func RecordCopyInvalidTest(t *testing.T, ds storage.ManifestStore) {
	ctx := context.Background()

	err := ds.RecordCopy(ctx, storage.CopyRecord{Destination: "/dest/a.txt", CopiedAt: now()})
	require.ErrorIs(t, err, storage.ErrInvalidRecord)

	err = ds.RecordCopy(ctx, storage.CopyRecord{RunID: newRunID(t), CopiedAt: now()})
	require.ErrorIs(t, err, storage.ErrInvalidRecord)
}

func ListCopiesTest(t *testing.T, ds storage.ManifestStore) {
	ctx := context.Background()
	runID := newRunID(t)

	empty, err := ds.ListCopies(ctx, runID)
	require.NoError(t, err)
	require.Empty(t, empty)

	var want []storage.CopyRecord
	for _, name := range []string{"c.txt", "a.txt", "b(1).txt", "b.txt"} {
		record := storage.CopyRecord{
			RunID:       runID,
			Source:      "/root/" + name,
			Destination: "/dest/" + name,
			Size:        int64(len(name)),
			Checksum:    fmt.Sprintf("%016x", len(name)),
			CopiedAt:    now(),
		}
		require.NoError(t, ds.RecordCopy(ctx, record))
		want = append(want, record)
	}

	// records of another run are not listed
	require.NoError(t, ds.RecordCopy(ctx, storage.CopyRecord{
		RunID:       newRunID(t),
		Source:      "/root/z.txt",
		Destination: "/dest/z.txt",
		CopiedAt:    now(),
	}))

	got, err := ds.ListCopies(ctx, runID)
	require.NoError(t, err)

	// ordered by destination
	want = []storage.CopyRecord{want[1], want[2], want[3], want[0]}
	if diff := cmp.Diff(want, got, cmpOpts...); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func ConcurrentRecordCopyTest(t *testing.T, ds storage.ManifestStore) {
	ctx := context.Background()
	runID := newRunID(t)

	const writers = 8
	const perWriter = 10

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				errs <- ds.RecordCopy(ctx, storage.CopyRecord{
					RunID:       runID,
					Source:      fmt.Sprintf("/root/%d/f%d.txt", w, i),
					Destination: fmt.Sprintf("/dest/f%d-%d.txt", w, i),
					CopiedAt:    now(),
				})
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := ds.ListCopies(ctx, runID)
	require.NoError(t, err)
	require.Len(t, got, writers*perWriter)
}
