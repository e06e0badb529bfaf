package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emirpasic/gods/stacks/arraystack"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openfga/disksearcher/internal/queue"
	"github.com/openfga/disksearcher/pkg/telemetry"
)

// Scouter is the single producer of the directory queue.
type Scouter struct {
	config
	root    string
	out     queue.Tx[string]
	release func()
}

// NewScouter registers the scouter as a producer of out right away, so
// consumers started before Run do not see end-of-stream. Run must be called
// exactly once to release it.
func NewScouter(root string, out queue.Tx[string], opts ...Option) *Scouter {
	return &Scouter{
		config:  newConfig(scouterStage, opts),
		root:    root,
		out:     out,
		release: out.RegisterProducer(),
	}
}

// Run pushes root and every directory below it onto the directory queue,
// parents before children, siblings in listing order. Directories reached
// through a symlink are not visited. A root that is not a directory pushes
// nothing.
func (s *Scouter) Run(ctx context.Context) {
	defer s.release()
	defer s.recoverPanic(scouterStage)

	_, span := tracer.Start(ctx, "scouter.Run", trace.WithAttributes(
		attribute.String("root", s.root),
	))
	defer span.End()

	// root itself may be a symlink to a directory.
	info, err := os.Stat(s.root)
	if err == nil && !info.IsDir() {
		err = fmt.Errorf("%s is not a directory", s.root)
	}
	if err != nil {
		telemetry.TraceError(span, err)
		s.fail(scouterStage, "invalid root", err, zap.String("root", s.root))
		return
	}

	stack := arraystack.New()
	stack.Push(s.root)

	var scouted int64
	for !stack.Empty() {
		v, _ := stack.Pop()
		dir := v.(string)

		s.out.Push(dir)
		scouted++
		s.stats.DirectoriesScouted.Add(1)
		directoriesScoutedCounter.Inc()

		children := s.subdirectories(dir)
		for i := len(children) - 1; i >= 0; i-- {
			stack.Push(children[i])
		}
	}

	span.SetAttributes(attribute.Int64("directories", scouted))
	s.logger.Debug("scouting done", zap.String("root", s.root), zap.Int64("directories", scouted))
}

// subdirectories returns the immediate subdirectories of dir in the order the
// filesystem lists them. An unreadable directory has none.
func (s *Scouter) subdirectories(dir string) []string {
	entries, err := readDirUnsorted(dir)
	if err != nil {
		s.fail(scouterStage, "failed to list directory", err, zap.String("directory", dir))
		return nil
	}

	var children []string
	for _, entry := range entries {
		if entry.IsDir() {
			children = append(children, filepath.Join(dir, entry.Name()))
		}
	}
	return children
}

// readDirUnsorted is os.ReadDir without the sort.
func readDirUnsorted(dir string) ([]os.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}
