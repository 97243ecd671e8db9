package oplog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
	Error string `json:"error"`
}

type logSink struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *logSink) lines(t *testing.T) []logLine {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logLine
	dec := json.NewDecoder(bytes.NewReader(s.buf.Bytes()))
	for dec.More() {
		var l logLine
		require.NoError(t, dec.Decode(&l))
		out = append(out, l)
	}
	return out
}

func newTestLogger() (*slog.Logger, *logSink) {
	sink := &logSink{}
	return slog.New(slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug})), sink
}

type recordingSubmitter struct {
	mu    sync.Mutex
	tasks []Task
}

func (s *recordingSubmitter) Submit(task Task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return true
}

func (s *recordingSubmitter) all() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.tasks...)
}

type memoryStore struct {
	mu      sync.Mutex
	records []*model.OperationLog
	err     error
}

func (s *memoryStore) Save(_ context.Context, record *model.OperationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *memoryStore) all() []*model.OperationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.OperationLog(nil), s.records...)
}
