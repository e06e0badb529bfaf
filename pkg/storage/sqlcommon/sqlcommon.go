// Package sqlcommon contains the manifest queries shared by the SQL engines.
package sqlcommon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/assets"
	"github.com/openfga/disksearcher/internal/build"
	"github.com/openfga/disksearcher/pkg/logger"
	"github.com/openfga/disksearcher/pkg/storage"
)

var tracer = otel.Tracer("disksearcher/pkg/storage/sqlcommon")

const (
	copyTable = "copy_record"
	runTable  = "run_summary"
)

var (
	copyColumns = []string{"run_id", "source", "destination", "size_bytes", "checksum", "copied_at"}
	runColumns  = []string{
		"run_id", "pattern", "extension", "root", "destination", "started_at", "finished_at",
		"directories_scouted", "directories_searched", "matches", "files_copied", "bytes_copied", "errors",
	}
)

// Config defines the configuration parameters
// for setting up and managing a sql connection.
type Config struct {
	Username string
	Password string
	Logger   logger.Logger

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	// PingTimeout bounds how long New waits for the database to accept connections.
	PingTimeout time.Duration

	ExportMetrics bool
}

// DatastoreOption defines a function type
// used for configuring a Config object.
type DatastoreOption func(*Config)

// WithUsername returns a DatastoreOption that sets the username in the Config.
func WithUsername(username string) DatastoreOption {
	return func(config *Config) {
		config.Username = username
	}
}

// WithPassword returns a DatastoreOption that sets the password in the Config.
func WithPassword(password string) DatastoreOption {
	return func(config *Config) {
		config.Password = password
	}
}

// WithLogger returns a DatastoreOption that sets the Logger in the Config.
func WithLogger(l logger.Logger) DatastoreOption {
	return func(cfg *Config) {
		cfg.Logger = l
	}
}

// WithMaxOpenConns returns a DatastoreOption that sets the
// maximum number of open connections in the Config.
func WithMaxOpenConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxOpenConns = c
	}
}

// WithMaxIdleConns returns a DatastoreOption that sets the
// maximum number of idle connections in the Config.
func WithMaxIdleConns(c int) DatastoreOption {
	return func(cfg *Config) {
		cfg.MaxIdleConns = c
	}
}

// WithConnMaxIdleTime returns a DatastoreOption that sets
// the maximum idle time for a connection in the Config.
func WithConnMaxIdleTime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxIdleTime = d
	}
}

// WithConnMaxLifetime returns a DatastoreOption that sets
// the maximum lifetime for a connection in the Config.
func WithConnMaxLifetime(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.ConnMaxLifetime = d
	}
}

func WithPingTimeout(d time.Duration) DatastoreOption {
	return func(cfg *Config) {
		cfg.PingTimeout = d
	}
}

// WithMetrics returns a DatastoreOption that
// enables the export of metrics in the Config.
func WithMetrics() DatastoreOption {
	return func(cfg *Config) {
		cfg.ExportMetrics = true
	}
}

// NewConfig creates a new Config instance with default values
// and applies any provided DatastoreOption modifications.
func NewConfig(opts ...DatastoreOption) *Config {
	cfg := &Config{}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.NewNoopLogger()
	}

	if cfg.PingTimeout == 0 {
		cfg.PingTimeout = 1 * time.Minute
	}

	return cfg
}

// ConfigureDB applies the pool settings, waits for the database to answer a
// ping, and registers the connection pool collector when metrics are enabled.
func ConfigureDB(db *sql.DB, cfg *Config) (prometheus.Collector, error) {
	if cfg.MaxIdleConns != 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns) // default is 2, not retaining connections(0) would be detrimental for performance
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.PingTimeout
	attempt := 1
	err := backoff.Retry(func() error {
		err := db.PingContext(context.Background())
		if err != nil {
			cfg.Logger.Info("waiting for database", zap.Int("attempt", attempt))
			attempt++
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	var collector prometheus.Collector
	if cfg.ExportMetrics {
		collector = collectors.NewDBStatsCollector(db, build.ProjectName)
		if err := prometheus.Register(collector); err != nil {
			return nil, fmt.Errorf("initialize metrics: %w", err)
		}
	}

	return collector, nil
}

type errorHandlerFn func(error, ...interface{}) error

// Datastore implements [storage.ManifestStore] on top of database/sql. The
// engine packages wrap it with their own connection setup and error mapping.
type Datastore struct {
	engine           string
	stbl             sq.StatementBuilderType
	db               *sql.DB
	logger           logger.Logger
	dbStatsCollector prometheus.Collector
	handleSQLError   errorHandlerFn
	versionReady     bool
}

var _ storage.ManifestStore = (*Datastore)(nil)

// NewDatastore wraps an already configured connection. collector may be nil.
func NewDatastore(
	engine string,
	db *sql.DB,
	stbl sq.StatementBuilderType,
	errorHandler errorHandlerFn,
	collector prometheus.Collector,
	cfg *Config,
) *Datastore {
	return &Datastore{
		engine:           engine,
		stbl:             stbl,
		db:               db,
		logger:           cfg.Logger,
		dbStatsCollector: collector,
		handleSQLError:   errorHandler,
	}
}

func (s *Datastore) startTrace(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, s.engine+"."+name, trace.WithAttributes(attribute.String("db.system", s.engine)))
}

// DB returns the underlying connection pool.
func (s *Datastore) DB() *sql.DB {
	return s.db
}

// Close see [storage.ManifestStore].Close.
func (s *Datastore) Close() {
	if s.dbStatsCollector != nil {
		prometheus.Unregister(s.dbStatsCollector)
	}
	s.db.Close()
}

// RecordCopy see [storage.ManifestStore].RecordCopy.
func (s *Datastore) RecordCopy(ctx context.Context, record storage.CopyRecord) error {
	ctx, span := s.startTrace(ctx, "RecordCopy")
	defer span.End()

	if err := storage.ValidateCopy(record); err != nil {
		return err
	}

	_, err := s.stbl.
		Insert(copyTable).
		Columns(copyColumns...).
		Values(record.RunID, record.Source, record.Destination, record.Size, record.Checksum, record.CopiedAt.UTC()).
		ExecContext(ctx)
	if err != nil {
		return s.handleSQLError(err, record.Destination)
	}
	return nil
}

// ReadCopy see [storage.ManifestStore].ReadCopy.
func (s *Datastore) ReadCopy(ctx context.Context, runID, destination string) (*storage.CopyRecord, error) {
	ctx, span := s.startTrace(ctx, "ReadCopy")
	defer span.End()

	var record storage.CopyRecord
	err := s.stbl.
		Select(copyColumns...).
		From(copyTable).
		Where(sq.Eq{"run_id": runID, "destination": destination}).
		QueryRowContext(ctx).
		Scan(&record.RunID, &record.Source, &record.Destination, &record.Size, &record.Checksum, &record.CopiedAt)
	if err != nil {
		return nil, s.handleSQLError(err)
	}
	return &record, nil
}

// ListCopies see [storage.ManifestStore].ListCopies.
func (s *Datastore) ListCopies(ctx context.Context, runID string) ([]storage.CopyRecord, error) {
	ctx, span := s.startTrace(ctx, "ListCopies")
	defer span.End()

	rows, err := s.stbl.
		Select(copyColumns...).
		From(copyTable).
		Where(sq.Eq{"run_id": runID}).
		OrderBy("destination").
		QueryContext(ctx)
	if err != nil {
		return nil, s.handleSQLError(err)
	}
	defer rows.Close()

	records := make([]storage.CopyRecord, 0)
	for rows.Next() {
		var record storage.CopyRecord
		if err := rows.Scan(&record.RunID, &record.Source, &record.Destination, &record.Size, &record.Checksum, &record.CopiedAt); err != nil {
			return nil, s.handleSQLError(err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, s.handleSQLError(err)
	}

	return records, nil
}

// WriteRun see [storage.ManifestStore].WriteRun.
func (s *Datastore) WriteRun(ctx context.Context, run storage.RunRecord) error {
	ctx, span := s.startTrace(ctx, "WriteRun")
	defer span.End()

	if err := storage.ValidateRun(run); err != nil {
		return err
	}

	_, err := s.stbl.
		Insert(runTable).
		Columns(runColumns...).
		Values(
			run.RunID, run.Pattern, run.Extension, run.Root, run.Destination,
			run.StartedAt.UTC(), run.FinishedAt.UTC(),
			run.DirectoriesScouted, run.DirectoriesSearched, run.Matches,
			run.FilesCopied, run.BytesCopied, run.Errors,
		).
		ExecContext(ctx)
	if err != nil {
		return s.handleSQLError(err, run.RunID)
	}
	return nil
}

// ReadRun see [storage.ManifestStore].ReadRun.
func (s *Datastore) ReadRun(ctx context.Context, runID string) (*storage.RunRecord, error) {
	ctx, span := s.startTrace(ctx, "ReadRun")
	defer span.End()

	var run storage.RunRecord
	err := s.stbl.
		Select(runColumns...).
		From(runTable).
		Where(sq.Eq{"run_id": runID}).
		QueryRowContext(ctx).
		Scan(
			&run.RunID, &run.Pattern, &run.Extension, &run.Root, &run.Destination,
			&run.StartedAt, &run.FinishedAt,
			&run.DirectoriesScouted, &run.DirectoriesSearched, &run.Matches,
			&run.FilesCopied, &run.BytesCopied, &run.Errors,
		)
	if err != nil {
		return nil, s.handleSQLError(err)
	}
	return &run, nil
}

// IsReady see [storage.ManifestStore].IsReady.
func (s *Datastore) IsReady(ctx context.Context) (storage.ReadinessStatus, error) {
	status, err := IsReady(ctx, s.versionReady, s.engine, s.db)
	if err != nil {
		return status, err
	}
	s.versionReady = status.IsReady
	return status, nil
}

// IsReady pings db and, unless skipVersionCheck is set, compares the applied
// schema revision with the one this binary needs.
func IsReady(ctx context.Context, skipVersionCheck bool, engine string, db *sql.DB) (storage.ReadinessStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// do ping first to ensure we have better error message
	// if error is due to connection issue.
	if pingErr := db.PingContext(ctx); pingErr != nil {
		return storage.ReadinessStatus{}, pingErr
	}

	if skipVersionCheck {
		return storage.ReadinessStatus{
			IsReady: true,
		}, nil
	}

	provider, err := NewMigrationProvider(engine, db)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	revision, err := provider.GetDBVersion(ctx)
	if err != nil {
		return storage.ReadinessStatus{}, err
	}

	if revision < build.MinimumSupportedDatastoreSchemaRevision {
		return storage.ReadinessStatus{
			Message: "datastore requires migrations: at revision '" +
				strconv.FormatInt(revision, 10) +
				"', but requires '" +
				strconv.FormatInt(build.MinimumSupportedDatastoreSchemaRevision, 10) +
				"'. Run 'disksearcher migrate'.",
			IsReady: false,
		}, nil
	}
	return storage.ReadinessStatus{
		IsReady: true,
	}, nil
}

// NewMigrationProvider returns a goose provider over the embedded migrations
// of engine.
func NewMigrationProvider(engine string, db *sql.DB, opts ...goose.ProviderOption) (*goose.Provider, error) {
	var (
		dialect goose.Dialect
		dir     string
	)

	switch engine {
	case "sqlite":
		dialect, dir = goose.DialectSQLite3, assets.SqliteMigrationDir
	case "postgres":
		dialect, dir = goose.DialectPostgres, assets.PostgresMigrationDir
	case "mysql":
		dialect, dir = goose.DialectMySQL, assets.MySQLMigrationDir
	default:
		return nil, fmt.Errorf("unknown datastore engine type: %s", engine)
	}

	migrations, err := fs.Sub(assets.EmbedMigrations, dir)
	if err != nil {
		return nil, err
	}

	return goose.NewProvider(dialect, db, migrations, opts...)
}

// IsNotFound reports whether err came from a query that matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
