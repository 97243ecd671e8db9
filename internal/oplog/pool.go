package oplog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/GoPolymarket/oplog/internal/config"
	"github.com/GoPolymarket/oplog/internal/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// WorkerPool runs tasks on a fixed number of goroutines fed by a bounded
// queue. What happens when the queue is full depends on the overflow policy.
type WorkerPool struct {
	tasks   chan Task
	workers int
	policy  string
	handle  func(context.Context, Task) error
	log     *slog.Logger
	warn    *rate.Limiter

	mu      sync.RWMutex
	closed  bool
	started bool
	group   errgroup.Group
}

func NewWorkerPool(queueSize, workers int, policy string, handle func(context.Context, Task) error, log *slog.Logger) *WorkerPool {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}
	if policy == "" {
		policy = config.OverflowDropNewest
	}
	return &WorkerPool{
		tasks:   make(chan Task, queueSize),
		workers: workers,
		policy:  policy,
		handle:  handle,
		log:     log,
		warn:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Start launches the workers. Handlers receive ctx without its cancellation so
// queued records are still written while shutting down.
func (w *WorkerPool) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	base := context.WithoutCancel(ctx)
	for n := 0; n < w.workers; n++ {
		w.group.Go(func() error {
			for task := range w.tasks {
				metrics.OperationLogQueueDepth.Set(float64(len(w.tasks)))
				w.process(base, task)
			}
			return nil
		})
	}
}

func (w *WorkerPool) process(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("operation log worker panic", "panic", r)
		}
	}()
	if err := w.handle(ctx, task); err != nil {
		w.log.Error("保存系统操作日志失败", "error", err, "path", taskPath(task))
	}
}

// Submit queues task and reports whether it was accepted. Only the block
// policy can make the caller wait, and only once Start has run; before that a
// full queue drops the task.
func (w *WorkerPool) Submit(task Task) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.dropped(task, "closed")
		return false
	}

	policy := w.policy
	if policy == config.OverflowBlock && !w.started {
		policy = config.OverflowDropNewest
	}
	switch policy {
	case config.OverflowBlock:
		w.tasks <- task
	case config.OverflowDropOldest:
		for {
			select {
			case w.tasks <- task:
				w.enqueued()
				return true
			default:
			}
			select {
			case old := <-w.tasks:
				metrics.OperationLogTasks.WithLabelValues("evicted").Inc()
				w.warnf("operation log queue full, evicting oldest entry", old)
			default:
			}
		}
	default:
		select {
		case w.tasks <- task:
		default:
			w.dropped(task, "full")
			return false
		}
	}
	w.enqueued()
	return true
}

// Close stops accepting tasks and waits for queued ones to finish.
func (w *WorkerPool) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.tasks)
	w.mu.Unlock()
	return w.group.Wait()
}

func (w *WorkerPool) Len() int {
	return len(w.tasks)
}

func (w *WorkerPool) enqueued() {
	metrics.OperationLogTasks.WithLabelValues("enqueued").Inc()
	metrics.OperationLogQueueDepth.Set(float64(len(w.tasks)))
}

func (w *WorkerPool) dropped(task Task, reason string) {
	metrics.OperationLogTasks.WithLabelValues("dropped").Inc()
	w.warnf("operation log queue "+reason+", dropping entry", task)
}

// warnf is rate limited so a saturated queue does not flood the log.
func (w *WorkerPool) warnf(msg string, task Task) {
	if w.warn.Allow() {
		w.log.Warn("⚠️ "+msg, "path", taskPath(task))
	}
}

func taskPath(task Task) string {
	if task.Request == nil {
		return ""
	}
	return task.Request.Path
}
