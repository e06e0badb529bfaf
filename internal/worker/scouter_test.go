package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfga/disksearcher/internal/queue"
	"github.com/openfga/disksearcher/pkg/logger"
)

func TestScouter(t *testing.T) {
	t.Run("pushes_every_directory_in_pre_order", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root,
			"a/a1/a11/",
			"a/a2/",
			"b/file.txt",
			"c/c1/deep.txt",
			"top.txt",
		)

		q := queue.Must[string](100)
		stats := &Stats{}
		NewScouter(root, q, WithStats(stats)).Run(context.Background())
		got := drain(t, q)

		want := []string{
			root,
			filepath.Join(root, "a"),
			filepath.Join(root, "a", "a1"),
			filepath.Join(root, "a", "a1", "a11"),
			filepath.Join(root, "a", "a2"),
			filepath.Join(root, "b"),
			filepath.Join(root, "c"),
			filepath.Join(root, "c", "c1"),
		}
		require.ElementsMatch(t, want, got)
		require.Equal(t, root, got[0])
		require.EqualValues(t, len(want), stats.DirectoriesScouted.Load())
		require.Zero(t, stats.Errors.Load())

		// Pre-order: a directory precedes its children, and a subtree is
		// contiguous.
		position := make(map[string]int, len(got))
		for i, dir := range got {
			position[dir] = i
		}
		for i, dir := range got {
			if dir == root {
				continue
			}
			require.Less(t, position[filepath.Dir(dir)], i, dir)
		}
		for i := 1; i < len(got); i++ {
			parent := filepath.Dir(got[i])
			prev := got[i-1]
			require.True(t, prev == parent || strings.HasPrefix(prev, parent+string(filepath.Separator)),
				"%s must follow its parent's subtree, got %s", got[i], prev)
		}
	})

	t.Run("does_not_follow_directory_symlinks", func(t *testing.T) {
		root := t.TempDir()
		outside := t.TempDir()
		writeTree(t, outside, "hidden/")
		writeTree(t, root, "real/")
		require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

		q := queue.Must[string](10)
		NewScouter(root, q).Run(context.Background())

		require.ElementsMatch(t, []string{root, filepath.Join(root, "real")}, drain(t, q))
	})

	t.Run("missing_root_pushes_nothing", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "missing")
		log, logs := logger.NewObserverLogger("debug")

		q := queue.Must[string](10)
		stats := &Stats{}
		NewScouter(root, q, WithLogger(log), WithStats(stats)).Run(context.Background())

		require.Empty(t, drain(t, q))
		require.Zero(t, stats.DirectoriesScouted.Load())
		require.EqualValues(t, 1, stats.Errors.Load())
		entries := logs.FilterMessage("invalid root").All()
		require.Len(t, entries, 1)
		require.Equal(t, "scouter", entries[0].ContextMap()["worker"])
		require.Zero(t, logs.FilterMessage("failed to list directory").Len())
	})

	t.Run("file_root_pushes_nothing", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "file.txt")
		require.NoError(t, os.WriteFile(root, []byte("x"), 0o600))

		q := queue.Must[string](10)
		stats := &Stats{}
		NewScouter(root, q, WithStats(stats)).Run(context.Background())

		require.Empty(t, drain(t, q))
		require.EqualValues(t, 1, stats.Errors.Load())
	})

	t.Run("symlinked_root_is_walked", func(t *testing.T) {
		target := t.TempDir()
		writeTree(t, target, "sub/")
		root := filepath.Join(t.TempDir(), "link")
		require.NoError(t, os.Symlink(target, root))

		q := queue.Must[string](10)
		NewScouter(root, q).Run(context.Background())

		require.Equal(t, []string{root, filepath.Join(root, "sub")}, drain(t, q))
	})

	t.Run("unreadable_subdirectory_is_still_pushed_and_error_is_logged", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "locked/inner/")
		locked := filepath.Join(root, "locked")
		require.NoError(t, os.Chmod(locked, 0o000))
		t.Cleanup(func() { _ = os.Chmod(locked, 0o750) })
		if _, err := os.ReadDir(locked); err == nil {
			t.Skip("directory permissions are not enforced for this user")
		}

		log, logs := logger.NewObserverLogger("debug")
		q := queue.Must[string](10)
		stats := &Stats{}
		NewScouter(root, q, WithLogger(log), WithStats(stats)).Run(context.Background())

		require.Equal(t, []string{root, locked}, drain(t, q))
		require.EqualValues(t, 1, stats.Errors.Load())
		require.Equal(t, 1, logs.FilterMessage("failed to list directory").Len())
	})

	t.Run("blocks_on_full_queue_until_consumed", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, "a/", "b/", "c/", "d/")

		q := queue.Must[string](1)
		scouter := NewScouter(root, q)
		require.Equal(t, 1, q.Producers())

		done := make(chan struct{})
		go func() {
			defer close(done)
			scouter.Run(context.Background())
		}()

		var got []string
		for dir := range q.Seq() {
			got = append(got, dir)
		}
		<-done
		require.Len(t, got, 5)
	})
}
