package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/internal/queue"
	"github.com/openfga/disksearcher/pkg/telemetry"
)

// Searcher consumes directories and produces the matching files found
// directly inside them.
type Searcher struct {
	config
	pattern   string
	extension string
	in        queue.Rx[string]
	out       queue.Tx[string]
	release   func()
}

// NewSearcher registers the searcher as a producer of out. Run must be called
// exactly once to release it.
func NewSearcher(pattern, extension string, in queue.Rx[string], out queue.Tx[string], opts ...Option) *Searcher {
	return &Searcher{
		config:    newConfig(searcherStage, opts),
		pattern:   pattern,
		extension: extension,
		in:        in,
		out:       out,
		release:   out.RegisterProducer(),
	}
}

// Matches reports whether name contains pattern and ends with extension.
// Both comparisons are literal and case-sensitive.
func Matches(name, pattern, extension string) bool {
	return strings.Contains(name, pattern) && strings.HasSuffix(name, extension)
}

// Run searches directories until the directory queue reports end-of-stream.
func (s *Searcher) Run(ctx context.Context) {
	defer s.release()
	defer s.recoverPanic(searcherStage)

	for dir := range s.in.Seq() {
		s.search(ctx, dir)
	}
}

func (s *Searcher) search(ctx context.Context, dir string) {
	_, span := tracer.Start(ctx, "searcher.search", trace.WithAttributes(
		attribute.String("directory", dir),
	))
	defer span.End()

	entries, err := readDirUnsorted(dir)
	if err != nil {
		telemetry.TraceError(span, err)
		s.fail(searcherStage, "failed to list directory", err, zap.String("directory", dir))
		return
	}
	s.stats.DirectoriesSearched.Add(1)
	directoriesSearchedCounter.Inc()

	var matches int
	for _, entry := range entries {
		name := entry.Name()
		if !Matches(name, s.pattern, s.extension) {
			continue
		}

		path := filepath.Join(dir, name)
		regular, err := isRegular(entry, path)
		if err != nil {
			s.fail(searcherStage, "failed to stat file", err, zap.String("file", path))
			continue
		}
		if !regular {
			continue
		}

		s.out.Push(path)
		matches++
		s.stats.Matches.Add(1)
		matchesCounter.Inc()
	}

	span.SetAttributes(attribute.Int("matches", matches))
}

// isRegular follows symlinks, so a link to a regular file counts.
func isRegular(entry fs.DirEntry, path string) (bool, error) {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.Type().IsRegular(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
