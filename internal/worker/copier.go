package worker

import (
	"context"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/internal/fileutil"
	"github.com/openfga/disksearcher/internal/queue"
	"github.com/openfga/disksearcher/pkg/storage"
	"github.com/openfga/disksearcher/pkg/telemetry"
)

// Copier consumes matching files and copies them into the destination
// directory.
type Copier struct {
	config
	destination string
	in          queue.Rx[string]
}

func NewCopier(destination string, in queue.Rx[string], opts ...Option) *Copier {
	return &Copier{
		config:      newConfig(copierStage, opts),
		destination: destination,
		in:          in,
	}
}

// Run copies files until the results queue reports end-of-stream.
func (c *Copier) Run(ctx context.Context) {
	defer c.recoverPanic(copierStage)

	for src := range c.in.Seq() {
		c.copy(ctx, src)
	}
}

func (c *Copier) copy(ctx context.Context, src string) {
	ctx, span := tracer.Start(ctx, "copier.copy", trace.WithAttributes(
		attribute.String("source", src),
	))
	defer span.End()

	dst, err := AvailableName(c.destination, filepath.Base(src))
	if err != nil {
		telemetry.TraceError(span, err)
		c.fail(copierStage, "failed to pick destination name", err, zap.String("source", src))
		return
	}
	span.SetAttributes(attribute.String("destination", dst))

	start := time.Now()
	// The name was only checked, not reserved, so an existing file is
	// overwritten.
	res, err := fileutil.CopyFile(src, dst,
		fileutil.WithBufferSize(c.bufferSize),
		fileutil.WithForce(true),
		fileutil.WithVerify(c.verify),
	)
	if err != nil {
		telemetry.TraceError(span, err)
		c.fail(copierStage, "failed to copy file", err, zap.String("source", src), zap.String("destination", dst))
		return
	}
	copyDurationHistogram.Observe(float64(time.Since(start).Milliseconds()))

	c.stats.FilesCopied.Add(1)
	c.stats.BytesCopied.Add(res.Bytes)
	filesCopiedCounter.Inc()
	bytesCopiedCounter.Add(float64(res.Bytes))

	c.logger.Debug("file copied",
		zap.String("source", src),
		zap.String("destination", dst),
		zap.Int64("bytes", res.Bytes))

	if c.store == nil {
		return
	}

	err = c.store.RecordCopy(ctx, storage.CopyRecord{
		RunID:       c.runID,
		Source:      src,
		Destination: dst,
		Size:        res.Bytes,
		Checksum:    res.ChecksumString(),
		CopiedAt:    time.Now().UTC().Truncate(time.Microsecond),
	})
	if err != nil {
		telemetry.TraceError(span, err)
		c.fail(copierStage, "failed to record copy", err, zap.String("source", src), zap.String("destination", dst))
	}
}
