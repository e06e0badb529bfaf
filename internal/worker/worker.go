// Package worker contains the three pipeline stages. A Scouter walks the tree
// and feeds directories to the Searchers, which feed matching files to the
// Copiers.
package worker

import (
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/internal/fileutil"
	"github.com/openfga/disksearcher/pkg/logger"
	"github.com/openfga/disksearcher/pkg/storage"
)

var tracer = otel.Tracer("disksearcher/internal/worker")

const (
	scouterStage  = "scouter"
	searcherStage = "searcher"
	copierStage   = "copier"
)

// Stats holds the counters of a single run. One Stats is shared by every
// worker of the run.
type Stats struct {
	DirectoriesScouted  atomic.Int64
	DirectoriesSearched atomic.Int64
	Matches             atomic.Int64
	FilesCopied         atomic.Int64
	BytesCopied         atomic.Int64
	Errors              atomic.Int64
}

type config struct {
	id         int
	logger     logger.Logger
	stats      *Stats
	bufferSize int
	verify     bool
	store      storage.ManifestStore
	runID      string
}

type Option func(*config)

func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithID numbers the worker within its stage. It only shows up in logs.
func WithID(id int) Option {
	return func(c *config) {
		c.id = id
	}
}

func WithStats(stats *Stats) Option {
	return func(c *config) {
		c.stats = stats
	}
}

// WithBufferSize sets the transfer buffer of a Copier.
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithVerify makes a Copier re-read every destination and compare digests.
func WithVerify(verify bool) Option {
	return func(c *config) {
		c.verify = verify
	}
}

// WithManifest makes a Copier record each successful copy under runID.
func WithManifest(store storage.ManifestStore, runID string) Option {
	return func(c *config) {
		c.store = store
		c.runID = runID
	}
}

func newConfig(stage string, opts []Option) config {
	cfg := config{
		bufferSize: fileutil.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNoopLogger()
	}
	if cfg.stats == nil {
		cfg.stats = &Stats{}
	}
	cfg.logger = cfg.logger.With(zap.String("worker", stage), zap.Int("worker_id", cfg.id))
	return cfg
}

// fail logs a per-item failure and counts it.
func (c *config) fail(stage, msg string, err error, fields ...zap.Field) {
	c.logger.Error(msg, append(fields, zap.Error(err))...)
	c.stats.Errors.Add(1)
	workerErrorsCounter.WithLabelValues(stage).Inc()
}

// recoverPanic must be deferred directly by a worker's Run.
func (c *config) recoverPanic(stage string) {
	if r := recover(); r != nil {
		c.logger.Error("worker panicked", zap.Any("panic", r), zap.Stack("stacktrace"))
		c.stats.Errors.Add(1)
		workerErrorsCounter.WithLabelValues(stage).Inc()
	}
}
