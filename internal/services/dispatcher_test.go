package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"packscaler/internal/image"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeTransformer struct {
	mu      sync.Mutex
	seen    []string
	fail    map[string]error
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeTransformer) Transform(path string, factor int, mode image.Mode) (image.Result, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.seen = append(f.seen, path)
	err := f.fail[filepath.Base(path)]
	f.mu.Unlock()

	if err != nil {
		return image.Result{Path: path}, err
	}
	return image.Result{Path: path}, nil
}

func TestDispatchRunsEveryPath(t *testing.T) {
	root := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.jpg", "d.png", "e.png", "f.jpeg", "g.png", "h.png"} {
		paths = append(paths, filepath.Join(root, "textures", name))
	}

	ft := &fakeTransformer{}
	d := NewDispatcher(ft, 3, quietLogger())

	out, err := d.Dispatch(context.Background(), root, paths, 2, image.ModeUpscale)
	require.NoError(t, err)
	assert.Len(t, out.Results, len(paths))
	assert.Empty(t, out.Failures)

	sort.Strings(ft.seen)
	assert.Equal(t, paths, ft.seen)
	assert.LessOrEqual(t, ft.maxSeen.Load(), int32(3))
}

func TestDispatchCollectsFailures(t *testing.T) {
	root := t.TempDir()
	paths := []string{
		filepath.Join(root, "ok.png"),
		filepath.Join(root, "blocks", "bad.png"),
		filepath.Join(root, "worse.jpg"),
	}
	cause := errors.New("broken header")
	ft := &fakeTransformer{fail: map[string]error{
		"bad.png":   &image.ImageError{Path: paths[1], Err: cause},
		"worse.jpg": errors.New("disk gone"),
	}}

	out, err := NewDispatcher(ft, 2, quietLogger()).Dispatch(context.Background(), root, paths, 2, image.ModeDownscale)
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, paths[0], out.Results[0].Path)

	require.Len(t, out.Failures, 2)
	assert.Equal(t, "blocks/bad.png", out.Failures[0].Path)
	assert.ErrorIs(t, out.Failures[0], cause)
	assert.Equal(t, "worse.jpg", out.Failures[1].Path)
	assert.EqualError(t, out.Failures[1].Err, "disk gone")
}

func TestDispatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransformer{}
	out, err := NewDispatcher(ft, 1, quietLogger()).Dispatch(ctx, "/", []string{"/a.png", "/b.png"}, 2, image.ModeUpscale)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
	assert.Empty(t, ft.seen)
}

func TestNewDispatcherDefaults(t *testing.T) {
	d := NewDispatcher(&fakeTransformer{}, 0, nil)
	assert.Equal(t, runtime.NumCPU(), d.Workers())
	assert.Equal(t, 5, NewDispatcher(&fakeTransformer{}, 5, nil).Workers())
}
