// Package pipeline wires the scouter, the searchers and the copiers together
// through two bounded queues and waits for them in that order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/internal/fileutil"
	"github.com/openfga/disksearcher/internal/queue"
	"github.com/openfga/disksearcher/internal/worker"
	"github.com/openfga/disksearcher/pkg/id"
	"github.com/openfga/disksearcher/pkg/logger"
	"github.com/openfga/disksearcher/pkg/storage"
	"github.com/openfga/disksearcher/pkg/telemetry"
)

var tracer = otel.Tracer("disksearcher/internal/pipeline")

const (
	DefaultDirectoryQueueCapacity = 50
	DefaultResultQueueCapacity    = 50
)

var ErrInvalidWorkerCount = errors.New("worker count must be greater than zero")

type Pipeline struct {
	pattern     string
	extension   string
	root        string
	destination string

	searchers         int
	copiers           int
	directoryCapacity int
	resultCapacity    int
	bufferSize        int
	verify            bool

	store  storage.ManifestStore
	logger logger.Logger
}

type PipelineOption func(p *Pipeline)

func WithSearchers(n int) PipelineOption {
	return func(p *Pipeline) {
		p.searchers = n
	}
}

func WithCopiers(n int) PipelineOption {
	return func(p *Pipeline) {
		p.copiers = n
	}
}

// WithQueueCapacities sets the capacity of the directory queue and of the
// results queue.
func WithQueueCapacities(directories, results int) PipelineOption {
	return func(p *Pipeline) {
		p.directoryCapacity = directories
		p.resultCapacity = results
	}
}

func WithBufferSize(n int) PipelineOption {
	return func(p *Pipeline) {
		p.bufferSize = n
	}
}

func WithVerify(verify bool) PipelineOption {
	return func(p *Pipeline) {
		p.verify = verify
	}
}

// WithManifestStore records every copy and the final run summary in store.
func WithManifestStore(store storage.ManifestStore) PipelineOption {
	return func(p *Pipeline) {
		p.store = store
	}
}

func WithLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = l
	}
}

// New returns a pipeline copying every file below root whose name contains
// pattern and ends with extension into destination. By default it runs one
// searcher and one copier.
func New(pattern, extension, root, destination string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		pattern:           pattern,
		extension:         extension,
		root:              root,
		destination:       destination,
		searchers:         1,
		copiers:           1,
		directoryCapacity: DefaultDirectoryQueueCapacity,
		resultCapacity:    DefaultResultQueueCapacity,
		bufferSize:        fileutil.DefaultBufferSize,
		logger:            logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts one scouter, the searchers and the copiers, and returns once the
// scouter, then every searcher, then every copier has finished. Per-item
// failures only show up in the report's error count; an error is returned
// only when the pipeline could not be started.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	if p.searchers < 1 {
		return nil, fmt.Errorf("%w: searchers=%d", ErrInvalidWorkerCount, p.searchers)
	}
	if p.copiers < 1 {
		return nil, fmt.Errorf("%w: copiers=%d", ErrInvalidWorkerCount, p.copiers)
	}

	directories, err := queue.New[string](p.directoryCapacity)
	if err != nil {
		return nil, fmt.Errorf("directory queue: %w", err)
	}
	results, err := queue.New[string](p.resultCapacity)
	if err != nil {
		return nil, fmt.Errorf("results queue: %w", err)
	}

	runID, err := id.NewString()
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "pipeline.Run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.String("root", p.root),
		attribute.Int("searchers", p.searchers),
		attribute.Int("copiers", p.copiers),
	))
	defer span.End()

	log := p.logger.With(zap.String("run_id", runID))
	stats := &worker.Stats{}
	report := &Report{
		RunID:       runID,
		Pattern:     p.pattern,
		Extension:   p.extension,
		Root:        p.root,
		Destination: p.destination,
		Searchers:   p.searchers,
		Copiers:     p.copiers,
		StartedAt:   time.Now().UTC(),
	}

	log.InfoWithContext(ctx, "pipeline started",
		zap.String("root", p.root),
		zap.String("destination", p.destination),
		zap.Int("searchers", p.searchers),
		zap.Int("copiers", p.copiers))

	common := []worker.Option{worker.WithLogger(log), worker.WithStats(stats)}

	// Every worker is constructed, and so registered on its output queue,
	// before any goroutine starts.
	scouter := worker.NewScouter(p.root, directories, common...)

	searchers := make([]*worker.Searcher, p.searchers)
	for i := range searchers {
		searchers[i] = worker.NewSearcher(p.pattern, p.extension, directories, results,
			append(common, worker.WithID(i))...)
	}

	copiers := make([]*worker.Copier, p.copiers)
	for i := range copiers {
		opts := append(common,
			worker.WithID(i),
			worker.WithBufferSize(p.bufferSize),
			worker.WithVerify(p.verify))
		if p.store != nil {
			opts = append(opts, worker.WithManifest(p.store, runID))
		}
		copiers[i] = worker.NewCopier(p.destination, results, opts...)
	}

	scouterPool := pool.New()
	scouterPool.Go(func() { scouter.Run(ctx) })

	searcherPool := pool.New().WithMaxGoroutines(p.searchers)
	for _, s := range searchers {
		searcherPool.Go(func() { s.Run(ctx) })
	}

	copierPool := pool.New().WithMaxGoroutines(p.copiers)
	for _, c := range copiers {
		copierPool.Go(func() { c.Run(ctx) })
	}

	scouterPool.Wait()
	log.Debug("scouter finished")
	searcherPool.Wait()
	log.Debug("searchers finished")
	copierPool.Wait()
	log.Debug("copiers finished")

	report.FinishedAt = time.Now().UTC()
	report.DirectoriesScouted = stats.DirectoriesScouted.Load()
	report.DirectoriesSearched = stats.DirectoriesSearched.Load()
	report.Matches = stats.Matches.Load()
	report.FilesCopied = stats.FilesCopied.Load()
	report.BytesCopied = stats.BytesCopied.Load()
	report.Errors = stats.Errors.Load()

	if p.store != nil {
		if err := p.store.WriteRun(ctx, report.RunRecord()); err != nil {
			telemetry.TraceError(span, err)
			log.ErrorWithContext(ctx, "failed to write run summary", zap.Error(err))
			report.Errors++
		}
	}

	span.SetAttributes(
		attribute.Int64("matches", report.Matches),
		attribute.Int64("files_copied", report.FilesCopied),
		attribute.Int64("errors", report.Errors),
	)
	log.InfoWithContext(ctx, "pipeline finished",
		zap.Int64("directories", report.DirectoriesScouted),
		zap.Int64("matches", report.Matches),
		zap.Int64("files_copied", report.FilesCopied),
		zap.Int64("bytes_copied", report.BytesCopied),
		zap.Int64("errors", report.Errors),
		zap.Duration("duration", report.Duration()))

	return report, nil
}
