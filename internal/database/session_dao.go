package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rigelview/obs-portal/internal/model"
)

type SessionDAO struct {
	Logger *slog.Logger
	*DB
}

func NewSessionDAO(logger *slog.Logger, db *DB) *SessionDAO {
	return &SessionDAO{
		Logger: logger.With("dao", "session"),
		DB:     db,
	}
}

type InsertSessionDTO struct {
	Token        string
	User         model.ID
	ObserverCode string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (dao *SessionDAO) Insert(ctx context.Context, dto InsertSessionDTO) error {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("sessions").
		Columns("session_id", "user_id", "observer_code", "created_at", "expires_at").
		Values(dto.Token, dto.User, dto.ObserverCode, dto.CreatedAt, dto.ExpiresAt).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query)

	if _, err := dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)

		if IsUniqueViolation(err) {
			return model.NewError("session", model.ErrExists)
		}

		return err
	}

	return nil
}

// Get returns the session for a token regardless of expiry; deciding
// whether it is still live belongs to the session manager.
func (dao *SessionDAO) Get(ctx context.Context, token string) (model.Session, error) {
	query, args, err := dao.Builder.
		Select("*").
		From("sessions").
		Where(squirrel.Eq{"session_id": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Session{}, err
	}

	var session model.Session
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&session); err != nil {
		if IsNoRows(err) {
			return model.Session{}, model.NewError("session", model.ErrNotFound)
		}

		return model.Session{}, err
	}

	return session, nil
}

// Delete removes a session unconditionally; a missing token is a no-op.
func (dao *SessionDAO) Delete(ctx context.Context, token string) error {
	logger := dao.Logger.With("query", "delete")

	query, args, err := dao.Builder.
		Delete("sessions").
		Where(squirrel.Eq{"session_id": token}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query)

	if _, err := dao.ExecContext(ctx, query, args...); err != nil {
		logger.Warn("failed query execute", "error", err)
		return err
	}

	return nil
}
