package database

import (
	"context"
	"testing"
	"time"

	"github.com/rigelview/obs-portal/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDAO_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	userID := insertTestUser(t, db, "mvega", "Imv")

	dao := NewSessionDAO(testLogger(), db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	err := dao.Insert(ctx, InsertSessionDTO{
		Token:        "tok-1",
		User:         userID,
		ObserverCode: "Imv",
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Hour),
	})
	require.NoError(t, err)

	session, err := dao.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, userID, session.User)
	assert.Equal(t, "Imv", session.ObserverCode)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))
}

func TestSessionDAO_GetUnknownToken(t *testing.T) {
	dao := NewSessionDAO(testLogger(), newTestDB(t))

	_, err := dao.Get(context.Background(), "never-issued")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionDAO_DeleteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	userID := insertTestUser(t, db, "mvega", "Imv")

	dao := NewSessionDAO(testLogger(), db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, dao.Insert(ctx, InsertSessionDTO{
		Token: "tok-1", User: userID, ObserverCode: "Imv",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, dao.Delete(ctx, "tok-1"))
	require.NoError(t, dao.Delete(ctx, "tok-1"), "deleting a missing token is a no-op")

	_, err := dao.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestSessionDAO_CascadeOnUserDelete(t *testing.T) {
	db := newTestDB(t)
	userID := insertTestUser(t, db, "mvega", "Imv")

	sessions := NewSessionDAO(testLogger(), db)
	users := NewUserDAO(testLogger(), db)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, sessions.Insert(ctx, InsertSessionDTO{
		Token: "tok-1", User: userID, ObserverCode: "Imv",
		CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))

	require.NoError(t, users.Delete(ctx, userID))

	_, err := sessions.Get(ctx, "tok-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
