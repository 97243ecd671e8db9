package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var areaQuery = regexp.QuoteMeta("SELECT area FROM sys_ip")

func newMockIPRepo(t *testing.T) (*IPRepo, sqlmock.Sqlmock) {
	t.Helper()
	mockdb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockdb.Close() })
	return NewIPRepo(sqlx.NewDb(mockdb, "sqlmock")), mock
}

func TestIPRepoFindArea(t *testing.T) {
	repo, mock := newMockIPRepo(t)
	// 8.8.8.8 = 134744072
	mock.ExpectQuery(areaQuery).
		WithArgs(int64(134744072)).
		WillReturnRows(sqlmock.NewRows([]string{"area"}).AddRow("美国"))

	area, ok, err := repo.FindArea(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "美国", area)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIPRepoFindAreaNoMatch(t *testing.T) {
	repo, mock := newMockIPRepo(t)
	mock.ExpectQuery(areaQuery).WillReturnRows(sqlmock.NewRows([]string{"area"}))

	area, ok, err := repo.FindArea(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, area)
}

func TestIPRepoFindAreaQueryError(t *testing.T) {
	repo, mock := newMockIPRepo(t)
	mock.ExpectQuery(areaQuery).WillReturnError(errors.New("connection reset"))

	_, ok, err := repo.FindArea(context.Background(), "1.2.3.4")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestIPRepoFindAreaWithoutQuery(t *testing.T) {
	repo, mock := newMockIPRepo(t)

	cases := map[string]struct {
		area string
		ok   bool
	}{
		"127.0.0.1":   {privateArea, true},
		"192.168.1.9": {privateArea, true},
		"::1":         {privateArea, true},
		"2001:db8::1": {"", false},
		"unknown":     {"", false},
		"":            {"", false},
	}
	for ip, want := range cases {
		area, ok, err := repo.FindArea(context.Background(), ip)
		require.NoError(t, err, ip)
		assert.Equal(t, want.area, area, ip)
		assert.Equal(t, want.ok, ok, ip)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
