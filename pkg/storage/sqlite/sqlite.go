// Package sqlite provides a SQLite backed [storage.ManifestStore].
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/openfga/disksearcher/pkg/storage"
	"github.com/openfga/disksearcher/pkg/storage/sqlcommon"
)

// Datastore provides a SQLite based implementation of [storage.ManifestStore].
type Datastore struct {
	*sqlcommon.Datastore
}

// Ensures that SQLite implements the ManifestStore interface.
var _ storage.ManifestStore = (*Datastore)(nil)

// PrepareDSN prepares a raw DSN from config for use with SQLite, specifying
// defaults for journal mode, busy timeout and transaction locking.
func PrepareDSN(uri string) (string, error) {
	query := url.Values{}
	var err error

	if i := strings.Index(uri, "?"); i != -1 {
		query, err = url.ParseQuery(uri[i+1:])
		if err != nil {
			return uri, fmt.Errorf("error parsing dsn: %w", err)
		}

		uri = uri[:i]
	}

	foundJournalMode := false
	foundBusyTimeout := false
	for _, val := range query["_pragma"] {
		if strings.HasPrefix(val, "journal_mode") {
			foundJournalMode = true
		} else if strings.HasPrefix(val, "busy_timeout") {
			foundBusyTimeout = true
		}
	}

	if !foundJournalMode {
		query.Add("_pragma", "journal_mode(WAL)")
	}
	if !foundBusyTimeout {
		query.Add("_pragma", "busy_timeout(500)")
	}

	// Set transaction mode to immediate if not specified
	if !query.Has("_txlock") {
		query.Set("_txlock", "immediate")
	}

	uri += "?" + query.Encode()

	return uri, nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite connection: %w", err)
	}

	collector, err := sqlcommon.ConfigureDB(db, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure db: %w", err)
	}

	stbl := sq.StatementBuilder.RunWith(db)

	return &Datastore{
		Datastore: sqlcommon.NewDatastore("sqlite", db, stbl, HandleSQLError, collector, cfg),
	}, nil
}

// RecordCopy see [storage.ManifestStore].RecordCopy.
func (s *Datastore) RecordCopy(ctx context.Context, record storage.CopyRecord) error {
	return busyRetry(func() error {
		return s.Datastore.RecordCopy(ctx, record)
	})
}

// WriteRun see [storage.ManifestStore].WriteRun.
func (s *Datastore) WriteRun(ctx context.Context, run storage.RunRecord) error {
	return busyRetry(func() error {
		return s.Datastore.WriteRun(ctx, run)
	})
}

// HandleSQLError processes an SQL error and converts it into a more
// specific error type based on the nature of the SQL error.
func HandleSQLError(err error, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code()&0xFF == sqlite3.SQLITE_CONSTRAINT {
			if len(args) > 0 {
				return fmt.Errorf("%w: %v", storage.ErrCollision, args[0])
			}
			return storage.ErrCollision
		}
	}

	return fmt.Errorf("sql error: %w", err)
}

// SQLite will return an SQLITE_BUSY error when the database is locked rather than waiting for the lock.
// This function retries the operation up to maxRetries times before returning the error.
func busyRetry(fn func() error) error {
	const maxRetries = 10
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil {
			return nil
		}

		if isBusyError(err) {
			if retries < maxRetries {
				continue
			}

			return fmt.Errorf("sqlite busy error after %d retries: %w", maxRetries, err)
		}

		return err
	}
}

var busyErrors = map[int]struct{}{
	sqlite3.SQLITE_BUSY_RECOVERY:      {},
	sqlite3.SQLITE_BUSY_SNAPSHOT:      {},
	sqlite3.SQLITE_BUSY_TIMEOUT:       {},
	sqlite3.SQLITE_BUSY:               {},
	sqlite3.SQLITE_LOCKED_SHAREDCACHE: {},
	sqlite3.SQLITE_LOCKED:             {},
}

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	_, ok := busyErrors[sqliteErr.Code()]
	return ok
}
