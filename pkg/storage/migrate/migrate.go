// Package migrate applies the embedded manifest schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/pkg/logger"
	"github.com/openfga/disksearcher/pkg/storage/mysql"
	"github.com/openfga/disksearcher/pkg/storage/postgres"
	"github.com/openfga/disksearcher/pkg/storage/sqlcommon"
	"github.com/openfga/disksearcher/pkg/storage/sqlite"
)

// MigrationConfig contains the configuration needed for running migrations.
type MigrationConfig struct {
	Engine   string
	URI      string
	Username string
	Password string

	// TargetVersion is the schema revision to migrate to, up or down. Zero
	// means the latest revision.
	TargetVersion int64
	Timeout       time.Duration
	Verbose       bool
	Logger        logger.Logger
}

// openDB opens a connection for engine with the credentials in cfg applied.
func openDB(cfg MigrationConfig) (*sql.DB, error) {
	var (
		driver string
		uri    string
		err    error
	)

	switch cfg.Engine {
	case "sqlite":
		driver = "sqlite"
		uri, err = sqlite.PrepareDSN(cfg.URI)
	case "postgres":
		driver = "pgx"
		uri, err = postgres.PrepareURI(cfg.URI, cfg.Username, cfg.Password)
	case "mysql":
		driver = "mysql"
		uri, err = mysql.PrepareDSN(cfg.URI, cfg.Username, cfg.Password)
	case "":
		return nil, fmt.Errorf("missing datastore engine type")
	default:
		return nil, fmt.Errorf("unknown datastore engine type: %s", cfg.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid database uri: %w", err)
	}

	return sql.Open(driver, uri)
}

// RunMigrations migrates the datastore described by cfg and returns the
// schema revision it ends at. The memory engine has no schema and returns
// zero without doing anything.
func RunMigrations(ctx context.Context, cfg MigrationConfig) (int64, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoopLogger()
	}

	if cfg.Engine == "memory" {
		log.Info("no migrations to run for `memory` datastore")
		return 0, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to open a connection to the datastore: %w", err)
	}
	defer db.Close()

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = cfg.Timeout
	if policy.MaxElapsedTime == 0 {
		policy.MaxElapsedTime = time.Minute
	}
	attempt := 1
	err = backoff.Retry(func() error {
		err := db.PingContext(ctx)
		if err != nil {
			log.Info("waiting for database", zap.String("engine", cfg.Engine), zap.Int("attempt", attempt))
			attempt++
		}
		return err
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to initialize database connection: %w", err)
	}

	provider, err := sqlcommon.NewMigrationProvider(cfg.Engine, db, goose.WithVerbose(cfg.Verbose))
	if err != nil {
		return 0, err
	}

	current, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s db version: %w", cfg.Engine, err)
	}
	log.Info("current schema revision", zap.String("engine", cfg.Engine), zap.Int64("version", current))

	switch {
	case cfg.TargetVersion == 0:
		_, err = provider.Up(ctx)
	case cfg.TargetVersion < current:
		_, err = provider.DownTo(ctx, cfg.TargetVersion)
	case cfg.TargetVersion > current:
		_, err = provider.UpTo(ctx, cfg.TargetVersion)
	default:
		log.Info("nothing to migrate", zap.String("engine", cfg.Engine))
		return current, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get %s db version: %w", cfg.Engine, err)
	}
	log.Info("migration done", zap.String("engine", cfg.Engine), zap.Int64("version", version))

	return version, nil
}
