package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfga/disksearcher/pkg/storage"
	"github.com/openfga/disksearcher/pkg/storage/sqlcommon"
	"github.com/openfga/disksearcher/pkg/storage/test"
)

func newDatastore(t *testing.T, migrate bool) *Datastore {
	t.Helper()

	uri := "file:" + filepath.Join(t.TempDir(), "manifest.db")
	ds, err := New(uri, sqlcommon.NewConfig())
	require.NoError(t, err)

	if migrate {
		provider, err := sqlcommon.NewMigrationProvider("sqlite", ds.DB())
		require.NoError(t, err)
		_, err = provider.Up(context.Background())
		require.NoError(t, err)
	}

	return ds
}

func TestSQLiteDatastore(t *testing.T) {
	ds := newDatastore(t, true)
	defer ds.Close()
	test.RunAllTests(t, ds)
}

func TestSQLiteDatastoreRequiresMigrations(t *testing.T) {
	ds := newDatastore(t, false)
	defer ds.Close()

	status, err := ds.IsReady(context.Background())
	require.NoError(t, err)
	require.False(t, status.IsReady)
	require.Contains(t, status.Message, "Run 'disksearcher migrate'")
}

func TestSQLiteDatastoreAfterCloseIsNotReady(t *testing.T) {
	ds := newDatastore(t, true)
	ds.Close()

	status, err := ds.IsReady(context.Background())
	require.Error(t, err)
	require.False(t, status.IsReady)
}

func TestPrepareDSN(t *testing.T) {
	for _, tc := range []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "defaults",
			uri:      "file:manifest.db",
			expected: "file:manifest.db?_pragma=journal_mode%28WAL%29&_pragma=busy_timeout%28500%29&_txlock=immediate",
		},
		{
			name:     "keeps_explicit_pragmas",
			uri:      "file:manifest.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(10)&_txlock=deferred",
			expected: "file:manifest.db?_pragma=journal_mode%28DELETE%29&_pragma=busy_timeout%2810%29&_txlock=deferred",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PrepareDSN(tc.uri)
			require.NoError(t, err)
			require.Equal(t, tc.expected, got)
		})
	}

	_, err := PrepareDSN("file:manifest.db?%zz")
	require.ErrorContains(t, err, "error parsing dsn")
}

func TestHandleSQLError(t *testing.T) {
	require.ErrorIs(t, HandleSQLError(sql.ErrNoRows), storage.ErrNotFound)

	err := HandleSQLError(errors.New("boom"))
	require.EqualError(t, err, "sql error: boom")
	require.NotErrorIs(t, err, storage.ErrCollision)
}

func TestBusyRetry(t *testing.T) {
	calls := 0
	err := busyRetry(func() error {
		calls++
		return errors.New("not busy")
	})
	require.EqualError(t, err, "not busy")
	require.Equal(t, 1, calls)

	require.NoError(t, busyRetry(func() error { return nil }))
}
