package auth

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rigelview/obs-portal/internal/database"
	"github.com/rigelview/obs-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, model.ID) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	dsn := filepath.Join(t.TempDir(), "auth_test.db") + "?_foreign_keys=on"
	db, err := database.New(database.DriverSQLite, dsn, true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := database.NewUserDAO(logger, db)
	userID, err := users.Insert(context.Background(), database.InsertUserDTO{
		Username:     "mvega",
		PasswordHash: "x",
		Email:        "mvega@example.edu",
		FirstName:    "Mira",
		LastName:     "Vega",
		ObserverCode: "Imv",
	})
	require.NoError(t, err)

	return NewSessionManager(logger, db), userID
}

func TestSessionLifecycle(t *testing.T) {
	manager, userID := newTestManager(t)
	ctx := context.Background()

	token, err := manager.StartSession(ctx, userID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := manager.ValidateSession(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "Imv", identity.ObserverCode)

	require.NoError(t, manager.EndSession(ctx, token))

	identity, err = manager.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, identity, "a revoked token validates like one never issued")
}

func TestStartSessionUnknownUser(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.StartSession(context.Background(), 9999, time.Hour)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestValidateSessionExpiry(t *testing.T) {
	manager, userID := newTestManager(t)
	ctx := context.Background()

	token, err := manager.StartSession(ctx, userID, time.Hour)
	require.NoError(t, err)

	// Move the manager's clock past the deadline; expiry is enforced at
	// read time, no sweeper involved.
	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	identity, err := manager.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestStartSessionZeroDurationExpiresImmediately(t *testing.T) {
	manager, userID := newTestManager(t)
	ctx := context.Background()

	token, err := manager.StartSession(ctx, userID, 0)
	require.NoError(t, err)

	identity, err := manager.ValidateSession(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestValidateSessionUnknownToken(t *testing.T) {
	manager, _ := newTestManager(t)

	identity, err := manager.ValidateSession(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.Nil(t, identity)

	identity, err = manager.ValidateSession(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestSessionTokensAreUnique(t *testing.T) {
	manager, userID := newTestManager(t)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		token, err := manager.StartSession(ctx, userID, time.Hour)
		require.NoError(t, err)
		require.Len(t, token, 64)

		_, dup := seen[token]
		require.False(t, dup)
		seen[token] = struct{}{}
	}
}
