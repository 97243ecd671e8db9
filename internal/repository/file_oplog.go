package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoPolymarket/oplog/internal/model"
)

// FileOperationLogStore appends operation logs as JSON lines, one file per day.
type FileOperationLogStore struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
	enc  *json.Encoder
}

func NewFileOperationLogStore(dir string) (*FileOperationLogStore, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileOperationLogStore{dir: dir, now: time.Now}, nil
}

func (s *FileOperationLogStore) Save(_ context.Context, record *model.OperationLog) error {
	if record == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// 按日轮转文件
	day := s.now().Format("2006-01-02")
	if s.file == nil || s.day != day {
		if err := s.rotate(day); err != nil {
			return err
		}
	}
	return s.enc.Encode(record)
}

func (s *FileOperationLogStore) rotate(day string) error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}
	filename := filepath.Join(s.dir, "oplog-"+day+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	s.file = f
	s.day = day
	s.enc = json.NewEncoder(f)
	return nil
}

func (s *FileOperationLogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
