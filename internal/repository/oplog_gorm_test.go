package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GoPolymarket/oplog/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockdb.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: mockdb}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func TestGormOperationLogStoreSave(t *testing.T) {
	gdb, mock := newMockGorm(t)
	store := NewGormOperationLogStore(gdb)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "sys_operation_log"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	code := model.SuccessCode
	err := store.Save(context.Background(), &model.OperationLog{
		ID:         "3f1c0e4e-1111-4d3c-9c51-000000000001",
		Name:       "添加用户",
		Path:       "/api/user/add",
		Success:    true,
		Code:       &code,
		CreateTime: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOperationLogStoreSaveError(t *testing.T) {
	gdb, mock := newMockGorm(t)
	store := NewGormOperationLogStore(gdb)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "sys_operation_log"`)).
		WillReturnError(errors.New("disk full"))

	err := store.Save(context.Background(), &model.OperationLog{ID: "id-1", CreateTime: time.Now()})
	assert.EqualError(t, err, "disk full")
}

func TestGormOperationLogStoreSaveNil(t *testing.T) {
	gdb, mock := newMockGorm(t)
	store := NewGormOperationLogStore(gdb)

	assert.NoError(t, store.Save(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
