package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slateview/storyindex/internal/specifier"
)

func waitForBatch(t *testing.T, w *Watcher) []Invalidation {
	t.Helper()
	select {
	case batch := <-w.Invalidations():
		return batch
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for invalidations")
		return nil
	}
}

func startWatcher(t *testing.T, dir string, specs ...specifier.Specifier) *Watcher {
	t.Helper()
	w, err := New(Config{
		WorkingDir: dir,
		Specifiers: specs,
		Debounce:   20 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestNew_RequiresWorkingDir(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestWatcher_CreateAndRemove(t *testing.T) {
	dir := t.TempDir()
	spec := specifier.Specifier{Directory: ".", Files: "**/*.stories.json"}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))

	w := startWatcher(t, dir, spec)

	path := filepath.Join(dir, "Button.stories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stories":[]}`), 0o644))

	batch := waitForBatch(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, spec, batch[0].Specifier)
	assert.Equal(t, path, batch[0].Path)
	assert.False(t, batch[0].Removed)

	require.NoError(t, os.Remove(path))
	batch = waitForBatch(t, w)
	require.Len(t, batch, 1)
	assert.True(t, batch[0].Removed)
}

func TestWatcher_AbsoluteSpecifierDirectory(t *testing.T) {
	// The specifier points at an absolute directory outside the working
	// directory, the same way Specifier.Resolve handles one.
	storiesDir := t.TempDir()
	spec := specifier.Specifier{Directory: storiesDir, Files: "**/*.stories.json"}

	w := startWatcher(t, t.TempDir(), spec)

	path := filepath.Join(storiesDir, "Button.stories.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stories":[]}`), 0o644))

	batch := waitForBatch(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, spec, batch[0].Specifier)
	assert.Equal(t, path, batch[0].Path)
}

func TestWatcher_IgnoresNonMatchingPaths(t *testing.T) {
	dir := t.TempDir()
	spec := specifier.Specifier{Directory: ".", Files: "**/*.stories.json"}

	w := startWatcher(t, dir, spec)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Button.stories.json"), []byte("v1"), 0o644))

	batch := waitForBatch(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, filepath.Join(dir, "Button.stories.json"), batch[0].Path)
}

func TestWatcher_TouchWithoutChangeSuppressed(t *testing.T) {
	dir := t.TempDir()
	spec := specifier.Specifier{Directory: ".", Files: "**/*.stories.json"}

	w := startWatcher(t, dir, spec)

	path := filepath.Join(dir, "Button.stories.json")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0o644))
	waitForBatch(t, w)

	// Identical content rewritten: no invalidation should arrive.
	require.NoError(t, os.WriteFile(path, []byte("same"), 0o644))
	select {
	case batch := <-w.Invalidations():
		t.Fatalf("unexpected invalidations for unchanged content: %v", batch)
	case <-time.After(200 * time.Millisecond):
	}

	// A real change still comes through.
	require.NoError(t, os.WriteFile(path, []byte("different"), 0o644))
	batch := waitForBatch(t, w)
	require.Len(t, batch, 1)
	assert.Equal(t, path, batch[0].Path)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Config{WorkingDir: dir})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
