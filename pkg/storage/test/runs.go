package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/openfga/disksearcher/pkg/storage"
)

func WriteAndReadRunTest(t *testing.T, ds storage.ManifestStore) {
	ctx := context.Background()

	_, err := ds.ReadRun(ctx, newRunID(t))
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, ds.WriteRun(ctx, storage.RunRecord{}), storage.ErrInvalidRecord)

	started := now()
	run := storage.RunRecord{
		RunID:               newRunID(t),
		Pattern:             "report",
		Extension:           ".txt",
		Root:                "/root",
		Destination:         "/dest",
		StartedAt:           started,
		FinishedAt:          started.Add(1500 * time.Millisecond),
		DirectoriesScouted:  3,
		DirectoriesSearched: 3,
		Matches:             2,
		FilesCopied:         2,
		BytesCopied:         2048,
		Errors:              1,
	}
	require.NoError(t, ds.WriteRun(ctx, run))
	require.ErrorIs(t, ds.WriteRun(ctx, run), storage.ErrCollision)

	got, err := ds.ReadRun(ctx, run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, *got, cmpOpts...); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
