package repository

import (
	"context"
	"errors"

	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/GoPolymarket/oplog/internal/oplog"
)

// MultiStore saves every record to each of its stores in order. One failing
// store does not stop the others.
type MultiStore struct {
	stores []oplog.RecordStore
}

func NewMultiStore(stores ...oplog.RecordStore) *MultiStore {
	kept := make([]oplog.RecordStore, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiStore{stores: kept}
}

func (m *MultiStore) Save(ctx context.Context, record *model.OperationLog) error {
	var errs []error
	for _, s := range m.stores {
		if err := s.Save(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiStore) Len() int {
	return len(m.stores)
}
