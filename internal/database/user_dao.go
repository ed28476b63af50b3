package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/rigelview/obs-portal/internal/model"
)

type UserDAO struct {
	Logger *slog.Logger
	*DB
}

func NewUserDAO(logger *slog.Logger, db *DB) *UserDAO {
	return &UserDAO{
		Logger: logger.With("dao", "user"),
		DB:     db,
	}
}

type InsertUserDTO struct {
	Username     string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
	Institution  *string
	ObserverCode string
}

func (dao *UserDAO) Insert(ctx context.Context, dto InsertUserDTO) (model.ID, error) {
	logger := dao.Logger.With("query", "insert")

	query, args, err := dao.Builder.
		Insert("users").
		Columns("username", "password_hash", "email", "first_name", "last_name", "institution", "observer_code").
		Values(dto.Username, dto.PasswordHash, dto.Email, dto.FirstName, dto.LastName, dto.Institution, dto.ObserverCode).
		Suffix("RETURNING user_id").
		ToSql()
	if err != nil {
		return 0, err
	}

	logger.Debug("build query", "sql", query)

	var id model.ID
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&id); err != nil {
		logger.Warn("failed query execute", "error", err)

		if IsUniqueViolation(err) {
			return 0, model.NewError("user", model.ErrExists)
		}

		return 0, err
	}

	logger.Debug("success query execute", "insertId", id)

	return id, nil
}

func (dao *UserDAO) Get(ctx context.Context, id model.ID) (model.User, error) {
	return dao.get(ctx, squirrel.Eq{"user_id": id})
}

// GetByIdentifier looks a user up by username or email, whichever matches.
func (dao *UserDAO) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	return dao.get(ctx, squirrel.Or{
		squirrel.Eq{"username": identifier},
		squirrel.Eq{"email": identifier},
	})
}

func (dao *UserDAO) get(ctx context.Context, where squirrel.Sqlizer) (model.User, error) {
	logger := dao.Logger.With("query", "get")

	query, args, err := dao.Builder.
		Select("*").
		From("users").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, err
	}

	logger.Debug("build query", "sql", query)

	var user model.User
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.StructScan(&user); err != nil {
		if IsNoRows(err) {
			return model.User{}, model.NewError("user", model.ErrNotFound)
		}

		logger.Warn("failed query execute", "error", err)

		return model.User{}, err
	}

	return user, nil
}

// ObserverCodes returns every assigned code, for conflict resolution when
// generating a new one.
func (dao *UserDAO) ObserverCodes(ctx context.Context) (map[string]struct{}, error) {
	query, _, err := dao.Builder.
		Select("observer_code").
		From("users").
		ToSql()
	if err != nil {
		return nil, err
	}

	var codes []string
	if err := dao.SelectContext(ctx, &codes, query); err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}

	return set, nil
}

func (dao *UserDAO) UpdatePassword(ctx context.Context, id model.ID, passwordHash string) error {
	logger := dao.Logger.With("query", "updatePassword")

	query, args, err := dao.Builder.
		Update("users").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return err
	}

	logger.Debug("build query", "sql", query)

	result, err := dao.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Warn("failed query execute", "error", err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.NewError("user", model.ErrNotFound)
	}

	return nil
}

func (dao *UserDAO) Delete(ctx context.Context, id model.ID) error {
	logger := dao.Logger.With("query", "delete")

	query, args, err := dao.Builder.
		Delete("users").
		Where(squirrel.Eq{"user_id": id}).
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
