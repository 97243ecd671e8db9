package repository

import (
	"context"
	"sync"

	"github.com/GoPolymarket/oplog/internal/model"
)

// MemoryOperationLogStore keeps the newest records in a fixed-size ring.
type MemoryOperationLogStore struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.OperationLog
	nextIndex int
}

func NewMemoryOperationLogStore(maxSize int) *MemoryOperationLogStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryOperationLogStore{
		maxSize: maxSize,
		records: make([]*model.OperationLog, 0, maxSize),
	}
}

func (b *MemoryOperationLogStore) Save(_ context.Context, record *model.OperationLog) error {
	if record == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, record)
		return nil
	}
	b.records[b.nextIndex] = record
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
	return nil
}

// Recent returns up to limit records, newest first.
func (b *MemoryOperationLogStore) Recent(_ context.Context, limit int) ([]*model.OperationLog, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	total := len(b.records)
	results := make([]*model.OperationLog, 0, min(limit, total))
	for i := 0; i < total && len(results) < limit; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		results = append(results, b.records[idx])
	}
	return results, nil
}
