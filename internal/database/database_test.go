package database

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "portal_test.db") + "?_foreign_keys=on"

	db, err := New(DriverSQLite, dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func insertTestUser(t *testing.T, db *DB, username, observerCode string) int64 {
	t.Helper()

	dao := NewUserDAO(testLogger(), db)
	id, err := dao.Insert(context.Background(), InsertUserDTO{
		Username:     username,
		PasswordHash: "x",
		Email:        username + "@example.edu",
		FirstName:    "Test",
		LastName:     "Observer",
		ObserverCode: observerCode,
	})
	require.NoError(t, err)

	return id
}
