// Package mysql provides a MySQL backed [storage.ManifestStore].
package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"github.com/openfga/disksearcher/pkg/storage"
	"github.com/openfga/disksearcher/pkg/storage/sqlcommon"
)

const duplicateEntry = 1062

// Datastore provides a MySQL based implementation of [storage.ManifestStore].
type Datastore struct {
	*sqlcommon.Datastore
}

// Ensures that Datastore implements the ManifestStore interface.
var _ storage.ManifestStore = (*Datastore)(nil)

// PrepareDSN overrides the credentials in uri when they are set and forces
// timestamps to be parsed as UTC [time.Time] values.
func PrepareDSN(uri, username, password string) (string, error) {
	dsnCfg, err := mysql.ParseDSN(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse mysql connection dsn: %w", err)
	}

	if username != "" {
		dsnCfg.User = username
	}
	if password != "" {
		dsnCfg.Passwd = password
	}

	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.UTC

	return dsnCfg.FormatDSN(), nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareDSN(uri, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", uri)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mysql connection: %w", err)
	}

	collector, err := sqlcommon.ConfigureDB(db, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure db: %w", err)
	}

	stbl := sq.StatementBuilder.RunWith(db)

	return &Datastore{
		Datastore: sqlcommon.NewDatastore("mysql", db, stbl, HandleSQLError, collector, cfg),
	}, nil
}

// HandleSQLError processes an SQL error and converts it into a more
// specific error type based on the nature of the SQL error.
func HandleSQLError(err error, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == duplicateEntry {
		if len(args) > 0 {
			return fmt.Errorf("%w: %v", storage.ErrCollision, args[0])
		}
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}
