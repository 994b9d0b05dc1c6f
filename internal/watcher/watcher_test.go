package watcher

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldProcess(t *testing.T) {
	assert.True(t, ShouldProcess("/inbox/pack.zip"))
	assert.True(t, ShouldProcess("/inbox/Pack.ZIP"))
	assert.False(t, ShouldProcess("/inbox/pack_2x_upscaled.zip"))
	assert.False(t, ShouldProcess("/inbox/.pack.zip.123.part"))
	assert.False(t, ShouldProcess("/inbox/.hidden.zip"))
	assert.False(t, ShouldProcess("/inbox/notes.txt"))
}

type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) process(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
	if filepath.Base(path) == "broken.zip" {
		return errors.New("not a zip")
	}
	return nil
}

func (c *collector) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestWatcherProcessesSettledArchives(t *testing.T) {
	dir := t.TempDir()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	c := &collector{}
	w, err := NewWatcher(dir, 100*time.Millisecond, c.process, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	pack := filepath.Join(dir, "pack.zip")
	f, err := os.Create(pack)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = f.Write([]byte("chunk"))
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pack_2x_upscaled.zip"), []byte("out"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.zip"), []byte("x"), 0644))

	assert.Eventually(t, func() bool { return len(c.seen()) == 2 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.ElementsMatch(t, []string{pack, filepath.Join(dir, "broken.zip")}, c.seen())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "nope"), 0, func(context.Context, string) error { return nil }, nil)
	assert.Error(t, err)
}

func TestWatcherReleasesTimersWhenEventsClose(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w, err := NewWatcher(t.TempDir(), time.Hour, func(context.Context, string) error { return nil }, logger)
	require.NoError(t, err)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, w.watcher.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after its event stream closed")
	}

	delivered := make(chan bool, 1)
	go func() { delivered <- w.deliver(ctx, "late.zip") }()
	select {
	case ok := <-delivered:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("late delivery blocked after the watcher stopped")
	}
}
