package oplog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/GoPolymarket/oplog/internal/config"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pathTask(path string) Task {
	return Task{Request: &model.RequestInfo{Path: path}}
}

type collector struct {
	mu    sync.Mutex
	paths []string
}

func (c *collector) handle(_ context.Context, task Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, taskPath(task))
	return nil
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestWorkerPoolDropNewest(t *testing.T) {
	log, sink := newTestLogger()
	c := &collector{}
	pool := NewWorkerPool(2, 1, config.OverflowDropNewest, c.handle, log)

	assert.True(t, pool.Submit(pathTask("/a")))
	assert.True(t, pool.Submit(pathTask("/b")))
	assert.False(t, pool.Submit(pathTask("/c")))
	assert.Equal(t, 2, pool.Len())

	pool.Start(context.Background())
	require.NoError(t, pool.Close())
	assert.Equal(t, []string{"/a", "/b"}, c.all())

	lines := sink.lines(t)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0].Level)
}

func TestWorkerPoolDropOldest(t *testing.T) {
	log, _ := newTestLogger()
	c := &collector{}
	pool := NewWorkerPool(1, 1, config.OverflowDropOldest, c.handle, log)

	for _, p := range []string{"/a", "/b", "/c"} {
		assert.True(t, pool.Submit(pathTask(p)))
	}

	pool.Start(context.Background())
	require.NoError(t, pool.Close())
	assert.Equal(t, []string{"/c"}, c.all())
}

func TestWorkerPoolBlockWaitsForRoom(t *testing.T) {
	log, _ := newTestLogger()
	c := &collector{}
	release := make(chan struct{})
	handle := func(ctx context.Context, task Task) error {
		<-release
		return c.handle(ctx, task)
	}
	pool := NewWorkerPool(1, 1, config.OverflowBlock, handle, log)
	pool.Start(context.Background())

	// the worker holds "/a", "/b" fills the queue
	require.True(t, pool.Submit(pathTask("/a")))
	require.Eventually(t, func() bool { return pool.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.True(t, pool.Submit(pathTask("/b")))

	done := make(chan bool)
	go func() { done <- pool.Submit(pathTask("/c")) }()

	select {
	case <-done:
		t.Fatal("submit returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.True(t, <-done)
	require.NoError(t, pool.Close())
	assert.Equal(t, []string{"/a", "/b", "/c"}, c.all())
}

func TestWorkerPoolBlockBeforeStartDrops(t *testing.T) {
	log, sink := newTestLogger()
	c := &collector{}
	pool := NewWorkerPool(1, 1, config.OverflowBlock, c.handle, log)

	require.True(t, pool.Submit(pathTask("/a")))
	assert.False(t, pool.Submit(pathTask("/b")))
	require.Len(t, sink.lines(t), 1)

	pool.Start(context.Background())
	require.NoError(t, pool.Close())
	assert.Equal(t, []string{"/a"}, c.all())
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	log, _ := newTestLogger()
	c := &collector{}
	pool := NewWorkerPool(4, 2, "", c.handle, log)
	pool.Start(context.Background())
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	assert.False(t, pool.Submit(pathTask("/late")))
	assert.Empty(t, c.all())
}

func TestWorkerPoolRecoversHandlerPanic(t *testing.T) {
	log, sink := newTestLogger()
	var mu sync.Mutex
	handled := 0
	pool := NewWorkerPool(4, 1, config.OverflowDropNewest, func(_ context.Context, task Task) error {
		mu.Lock()
		handled++
		mu.Unlock()
		if taskPath(task) == "/panic" {
			panic("handler exploded")
		}
		return nil
	}, log)
	pool.Start(context.Background())

	pool.Submit(pathTask("/panic"))
	pool.Submit(pathTask("/ok"))
	require.NoError(t, pool.Close())

	assert.Equal(t, 2, handled)
	lines := sink.lines(t)
	require.Len(t, lines, 1)
	assert.Equal(t, "ERROR", lines[0].Level)
}

func TestWorkerPoolHandlersIgnoreCancellation(t *testing.T) {
	log, _ := newTestLogger()
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	pool := NewWorkerPool(1, 1, config.OverflowDropNewest, func(ctx context.Context, _ Task) error {
		errs <- ctx.Err()
		return nil
	}, log)

	cancel()
	pool.Start(ctx)
	pool.Submit(pathTask("/a"))
	require.NoError(t, pool.Close())
	assert.NoError(t, <-errs)
}
