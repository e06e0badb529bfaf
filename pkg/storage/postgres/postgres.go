// Package postgres provides a PostgreSQL backed [storage.ManifestStore].
package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.

	"github.com/openfga/disksearcher/pkg/storage"
	"github.com/openfga/disksearcher/pkg/storage/sqlcommon"
)

const uniqueViolation = "23505"

// Datastore provides a PostgreSQL based implementation of [storage.ManifestStore].
type Datastore struct {
	*sqlcommon.Datastore
}

// Ensures that Datastore implements the ManifestStore interface.
var _ storage.ManifestStore = (*Datastore)(nil)

// PrepareURI overrides the credentials embedded in uri with username and
// password when they are set.
func PrepareURI(uri, username, password string) (string, error) {
	if username == "" && password == "" {
		return uri, nil
	}

	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse postgres connection uri: %w", err)
	}

	if username == "" && parsed.User != nil {
		username = parsed.User.Username()
	}

	switch {
	case password != "":
		parsed.User = url.UserPassword(username, password)
	case parsed.User != nil:
		if p, ok := parsed.User.Password(); ok {
			parsed.User = url.UserPassword(username, p)
		} else {
			parsed.User = url.User(username)
		}
	default:
		parsed.User = url.User(username)
	}

	return parsed.String(), nil
}

// New creates a new [Datastore] storage.
func New(uri string, cfg *sqlcommon.Config) (*Datastore, error) {
	uri, err := PrepareURI(uri, cfg.Username, cfg.Password)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", uri)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres connection: %w", err)
	}

	collector, err := sqlcommon.ConfigureDB(db, cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configure db: %w", err)
	}

	stbl := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db)

	return &Datastore{
		Datastore: sqlcommon.NewDatastore("postgres", db, stbl, HandleSQLError, collector, cfg),
	}, nil
}

// HandleSQLError processes an SQL error and converts it into a more
// specific error type based on the nature of the SQL error.
func HandleSQLError(err error, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if (errors.As(err, &pgErr) && pgErr.Code == uniqueViolation) ||
		strings.Contains(err.Error(), "duplicate key value") {
		if len(args) > 0 {
			return fmt.Errorf("%w: %v", storage.ErrCollision, args[0])
		}
		return storage.ErrCollision
	}

	return fmt.Errorf("sql error: %w", err)
}
