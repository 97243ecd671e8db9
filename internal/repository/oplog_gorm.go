package repository

import (
	"context"

	"github.com/GoPolymarket/oplog/internal/model"
	"gorm.io/gorm"
)

// GormOperationLogStore writes operation logs to sys_operation_log.
type GormOperationLogStore struct {
	db *gorm.DB
}

func NewGormOperationLogStore(db *gorm.DB) *GormOperationLogStore {
	return &GormOperationLogStore{db: db}
}

// Migrate creates or updates the sys_operation_log table.
func (s *GormOperationLogStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.OperationLog{})
}

func (s *GormOperationLogStore) Save(ctx context.Context, record *model.OperationLog) error {
	if record == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(record).Error
}
