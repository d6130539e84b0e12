package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewStore(db), mock
}

func TestColumnReorder_RollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)
	update := regexp.QuoteMeta(`UPDATE "task_columns" SET "position"=`)

	mock.ExpectBegin()
	mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(update).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := store.Transaction(context.Background(), func(tx *Store) error {
		return tx.Columns.Reorder(5, []uint64{3, 1, 2})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestColumnReorder_CommitsEveryPosition(t *testing.T) {
	store, mock := newMockStore(t)
	update := regexp.QuoteMeta(`UPDATE "task_columns" SET "position"=`)

	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec(update).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := store.Transaction(context.Background(), func(tx *Store) error {
		return tx.Columns.Reorder(5, []uint64{3, 1, 2})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditDeleteOlderThan_ReportsRowsAffected(t *testing.T) {
	store, mock := newMockStore(t)
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "audit_logs" WHERE created_at <`)).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	deleted, err := store.AuditLogs.DeleteOlderThan(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCountBy_RejectsUnknownColumn(t *testing.T) {
	store, mock := newMockStore(t)

	_, err := store.AuditLogs.CountBy(AuditFilter{ProjectID: 1}, "user_id; DROP TABLE audit_logs")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
