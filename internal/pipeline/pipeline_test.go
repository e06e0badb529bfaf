package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/openfga/disksearcher/internal/mocks"
	"github.com/openfga/disksearcher/internal/queue"
	"github.com/openfga/disksearcher/pkg/id"
	"github.com/openfga/disksearcher/pkg/logger"
	"github.com/openfga/disksearcher/pkg/storage/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// listing maps every file name in dir to its content.
func listing(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		b, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		require.NoError(t, err)
		out[entry.Name()] = string(b)
	}
	return out
}

func TestPipelineRun(t *testing.T) {
	t.Run("copies_only_matching_files", func(t *testing.T) {
		root := t.TempDir()
		dst := t.TempDir()
		writeFiles(t, root, map[string]string{
			"report_final.txt":         "final",
			"report_draft.csv":         "draft",
			"notes.txt":                "notes",
			"nested/deeper/report.txt": "deep",
		})

		report, err := New("report", ".txt", root, dst).Run(context.Background())
		require.NoError(t, err)

		require.Equal(t, map[string]string{
			"report_final.txt": "final",
			"report.txt":       "deep",
		}, listing(t, dst))
		require.True(t, id.IsValid(report.RunID))
		require.EqualValues(t, 3, report.DirectoriesScouted)
		require.EqualValues(t, 3, report.DirectoriesSearched)
		require.EqualValues(t, 2, report.Matches)
		require.EqualValues(t, 2, report.FilesCopied)
		require.EqualValues(t, len("final")+len("deep"), report.BytesCopied)
		require.Zero(t, report.Errors)
		require.False(t, report.FinishedAt.Before(report.StartedAt))
	})

	t.Run("same_name_from_two_directories_with_one_copier", func(t *testing.T) {
		root := t.TempDir()
		dst := t.TempDir()
		writeFiles(t, root, map[string]string{
			"a/dup.txt": "from a",
			"b/dup.txt": "from b",
		})

		report, err := New("dup", ".txt", root, dst, WithSearchers(2), WithCopiers(1)).Run(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 2, report.FilesCopied)

		got := listing(t, dst)
		require.Len(t, got, 2)
		require.Contains(t, got, "dup.txt")
		require.Contains(t, got, "dup(1).txt")
		require.ElementsMatch(t, []string{"from a", "from b"}, []string{got["dup.txt"], got["dup(1).txt"]})
	})

	t.Run("distinct_files_with_many_copiers", func(t *testing.T) {
		root := t.TempDir()
		dst := t.TempDir()
		writeFiles(t, root, map[string]string{
			"x/alpha.log": "alpha",
			"y/beta.log":  "beta",
		})

		report, err := New("", ".log", root, dst, WithSearchers(4), WithCopiers(8)).Run(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 2, report.FilesCopied)
		require.Equal(t, map[string]string{"alpha.log": "alpha", "beta.log": "beta"}, listing(t, dst))
	})

	t.Run("result_set_does_not_depend_on_worker_counts", func(t *testing.T) {
		root := t.TempDir()
		files := map[string]string{}
		for d := range 12 {
			for f := range 5 {
				name := fmt.Sprintf("dir%02d/sub%d/match_%02d_%d.txt", d, d%3, d, f)
				files[name] = name
				files[fmt.Sprintf("dir%02d/skip_%d.dat", d, f)] = "skip"
			}
		}
		writeFiles(t, root, files)

		var baseline map[string]string
		for _, workers := range [][2]int{{1, 1}, {3, 2}, {8, 8}, {2, 16}} {
			dst := t.TempDir()
			report, err := New("match", ".txt", root, dst,
				WithSearchers(workers[0]),
				WithCopiers(workers[1]),
				WithQueueCapacities(2, 3),
			).Run(context.Background())
			require.NoError(t, err)
			require.EqualValues(t, 60, report.FilesCopied)

			got := listing(t, dst)
			if baseline == nil {
				baseline = got
				continue
			}
			require.Equal(t, baseline, got, "searchers=%d copiers=%d", workers[0], workers[1])
		}
	})

	t.Run("tiny_queues_do_not_deadlock", func(t *testing.T) {
		root := t.TempDir()
		path := root
		for i := range 30 {
			path = filepath.Join(path, fmt.Sprintf("level%d", i))
			writeFiles(t, path, map[string]string{fmt.Sprintf("hit%d.txt", i): "x", "miss.bin": "y"})
		}

		dst := t.TempDir()
		report, err := New("hit", ".txt", root, dst,
			WithSearchers(3), WithCopiers(2), WithQueueCapacities(1, 1)).Run(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 31, report.DirectoriesScouted)
		require.EqualValues(t, 30, report.FilesCopied)
		require.Len(t, listing(t, dst), 30)
	})

	t.Run("missing_root_finishes_with_error_count", func(t *testing.T) {
		log, logs := logger.NewObserverLogger("debug")
		report, err := New("a", ".txt", filepath.Join(t.TempDir(), "missing"), t.TempDir(),
			WithLogger(log)).Run(context.Background())
		require.NoError(t, err)

		require.Zero(t, report.DirectoriesScouted)
		require.Zero(t, report.DirectoriesSearched)
		require.Zero(t, report.FilesCopied)
		require.EqualValues(t, 1, report.Errors)
		require.Equal(t, 1, logs.FilterMessage("invalid root").Len())
		require.Zero(t, logs.FilterMessage("failed to list directory").Len())
		require.Equal(t, 1, logs.FilterMessage("pipeline finished").Len())
	})

	t.Run("invalid_configuration", func(t *testing.T) {
		_, err := New("a", ".txt", t.TempDir(), t.TempDir(), WithSearchers(0)).Run(context.Background())
		require.ErrorIs(t, err, ErrInvalidWorkerCount)

		_, err = New("a", ".txt", t.TempDir(), t.TempDir(), WithCopiers(-1)).Run(context.Background())
		require.ErrorIs(t, err, ErrInvalidWorkerCount)

		_, err = New("a", ".txt", t.TempDir(), t.TempDir(), WithQueueCapacities(0, 5)).Run(context.Background())
		require.ErrorIs(t, err, queue.ErrInvalidSize)

		_, err = New("a", ".txt", t.TempDir(), t.TempDir(), WithQueueCapacities(5, 0)).Run(context.Background())
		require.ErrorIs(t, err, queue.ErrInvalidSize)
	})
}

func TestPipelineManifest(t *testing.T) {
	t.Run("records_copies_and_run_summary", func(t *testing.T) {
		ctx := context.Background()
		root := t.TempDir()
		dst := t.TempDir()
		writeFiles(t, root, map[string]string{
			"a/report.txt": "one",
			"b/report.txt": "two",
			"c/other.txt":  "three",
		})
		store := memory.New()
		t.Cleanup(store.Close)

		report, err := New("report", ".txt", root, dst,
			WithSearchers(3), WithManifestStore(store), WithVerify(true)).Run(ctx)
		require.NoError(t, err)

		copies, err := store.ListCopies(ctx, report.RunID)
		require.NoError(t, err)
		require.Len(t, copies, 2)
		require.Equal(t, filepath.Join(dst, "report(1).txt"), copies[0].Destination)
		require.Equal(t, filepath.Join(dst, "report.txt"), copies[1].Destination)
		sources := []string{copies[0].Source, copies[1].Source}
		slices.Sort(sources)
		require.Equal(t, []string{filepath.Join(root, "a", "report.txt"), filepath.Join(root, "b", "report.txt")}, sources)

		run, err := store.ReadRun(ctx, report.RunID)
		require.NoError(t, err)
		if diff := cmp.Diff(report.RunRecord(), *run, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("slow_store_still_completes", func(t *testing.T) {
		root := t.TempDir()
		files := map[string]string{}
		for i := range 10 {
			files[fmt.Sprintf("d%d/f%d.txt", i, i)] = "x"
		}
		writeFiles(t, root, files)

		store := memory.New()
		slow := mocks.NewMockSlowManifestStore(store, 5*time.Millisecond)

		report, err := New("f", ".txt", root, t.TempDir(),
			WithCopiers(2), WithQueueCapacities(1, 1), WithManifestStore(slow)).Run(context.Background())
		require.NoError(t, err)
		require.EqualValues(t, 10, report.FilesCopied)
		require.Zero(t, report.Errors)

		copies, err := store.ListCopies(context.Background(), report.RunID)
		require.NoError(t, err)
		require.Len(t, copies, 10)
	})
}
