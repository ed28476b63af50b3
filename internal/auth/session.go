// Package auth owns session issuance and validation, password hashing and
// observer-code assignment. It trusts the HTTP layer for transport and the
// DAOs for persistence.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rigelview/obs-portal/internal/database"
	"github.com/rigelview/obs-portal/internal/model"
)

const DefaultSessionDuration = 60 * time.Minute

// Identity is the validated owner of a session token; it is what mutating
// operations downstream receive instead of raw credentials.
type Identity struct {
	UserID       model.ID
	ObserverCode string
}

type SessionManager struct {
	logger   *slog.Logger
	sessions *database.SessionDAO
	users    *database.UserDAO

	// now is swappable so expiry can be tested without sleeping.
	now func() time.Time
}

func NewSessionManager(logger *slog.Logger, db *database.DB) *SessionManager {
	return &SessionManager{
		logger:   logger.With("module", "auth"),
		sessions: database.NewSessionDAO(logger, db),
		users:    database.NewUserDAO(logger, db),
		now:      time.Now,
	}
}

// StartSession issues a fresh opaque token for a known user, capturing the
// observer code at issuance. Unknown users get model.ErrNotFound. A zero
// duration produces a token that is already expired, which is deliberate:
// expiry is a pure read-time comparison.
func (m *SessionManager) StartSession(ctx context.Context, userID model.ID, duration time.Duration) (string, error) {
	user, err := m.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := m.now()
	err = m.sessions.Insert(ctx, database.InsertSessionDTO{
		Token:        token,
		User:         user.ID,
		ObserverCode: user.ObserverCode,
		CreatedAt:    now,
		ExpiresAt:    now.Add(duration),
	})
	if err != nil {
		return "", err
	}

	m.logger.Debug("session started", "userId", user.ID, "expiresIn", duration)

	return token, nil
}

// ValidateSession resolves a token to its identity. Expired, revoked and
// never-issued tokens are indistinguishable: all yield (nil, nil).
func (m *SessionManager) ValidateSession(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := m.sessions.Get(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}

		return nil, err
	}

	if !m.now().Before(session.ExpiresAt) {
		return nil, nil
	}

	return &Identity{UserID: session.User, ObserverCode: session.ObserverCode}, nil
}

// EndSession revokes a token. Revoking a token that never existed is a
// no-op.
func (m *SessionManager) EndSession(ctx context.Context, token string) error {
	return m.sessions.Delete(ctx, token)
}

func isNotFound(err error) bool {
	return errors.Is(err, model.ErrNotFound)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
