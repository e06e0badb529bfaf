// Package test holds the conformance suite every [storage.ManifestStore]
// implementation runs.
package test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/openfga/disksearcher/pkg/id"
	"github.com/openfga/disksearcher/pkg/storage"
)

var (
	// Stores differ in timestamp precision and time zone handling.
	cmpOpts = []cmp.Option{
		cmpopts.EquateApproxTime(time.Millisecond),
		cmpopts.EquateEmpty(),
	}
)

func RunAllTests(t *testing.T, ds storage.ManifestStore) {
	t.Run("TestDatastoreIsReady", func(t *testing.T) {
		status, err := ds.IsReady(context.Background())
		require.NoError(t, err)
		require.True(t, status.IsReady)
	})

	// Copies.
	t.Run("TestRecordAndReadCopy", func(t *testing.T) { RecordAndReadCopyTest(t, ds) })
	t.Run("TestRecordCopyCollision", func(t *testing.T) { RecordCopyCollisionTest(t, ds) })
	t.Run("TestRecordCopyInvalid", func(t *testing.T) { RecordCopyInvalidTest(t, ds) })
	t.Run("TestListCopies", func(t *testing.T) { ListCopiesTest(t, ds) })
	t.Run("TestConcurrentRecordCopy", func(t *testing.T) { ConcurrentRecordCopyTest(t, ds) })

	// Runs.
	t.Run("TestWriteAndReadRun", func(t *testing.T) { WriteAndReadRunTest(t, ds) })
}

func newRunID(t *testing.T) string {
	t.Helper()
	runID, err := id.NewString()
	require.NoError(t, err)
	return runID
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
