package protocol

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWeightsWatcherFiresOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.bin")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := NewWeightsWatcher(path, 20*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called after weights file rewrite")
	}
}

func TestWeightsWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.bin")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	fired := make(chan struct{}, 1)
	w, err := NewWeightsWatcher(path, 20*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0o644))

	select {
	case <-fired:
		t.Fatal("handler fired for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestAdapterWatchWeightsTriggersWeightsChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.bin")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	a := newTestAdapter(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.WatchWeights(ctx, path, 20*time.Millisecond))

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		a.mu.RLock()
		defer a.mu.RUnlock()
		return a.weightsChanged
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, a.EnsureReady())
	a.mu.RLock()
	dirty := a.weightsChanged
	a.mu.RUnlock()
	require.False(t, dirty)
}
