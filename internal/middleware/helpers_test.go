package middleware

import (
	"io"
	"log/slog"
	"sync"

	"github.com/GoPolymarket/oplog/internal/oplog"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type taskRecorder struct {
	mu    sync.Mutex
	tasks []oplog.Task
}

func (r *taskRecorder) Submit(task oplog.Task) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return true
}

func (r *taskRecorder) all() []oplog.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]oplog.Task(nil), r.tasks...)
}

func newRecordingInterceptor() (*oplog.Interceptor, *taskRecorder) {
	rec := &taskRecorder{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ic := oplog.NewInterceptor(nil, oplog.NewSnapshotBuilder("token"), oplog.NewMinimalStrategy(rec), log)
	return ic, rec
}
