package database

import (
	"context"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/rigelview/obs-portal/internal/model"
)

// InstitutionDAO reads the seeded institution lookup table. Rows are
// inserted by migration, never at runtime.
type InstitutionDAO struct {
	Logger *slog.Logger
	*DB
}

func NewInstitutionDAO(logger *slog.Logger, db *DB) *InstitutionDAO {
	return &InstitutionDAO{
		Logger: logger.With("dao", "institution"),
		DB:     db,
	}
}

func (dao *InstitutionDAO) List(ctx context.Context) ([]model.Institution, error) {
	query, _, err := dao.Builder.
		Select("*").
		From("institutions").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return []model.Institution{}, err
	}

	institutions := make([]model.Institution, 0)
	if err := dao.SelectContext(ctx, &institutions, query); err != nil {
		return []model.Institution{}, err
	}

	return institutions, nil
}

// CodeFor resolves an institution name to its single-letter code.
func (dao *InstitutionDAO) CodeFor(ctx context.Context, name string) (string, error) {
	query, args, err := dao.Builder.
		Select("code").
		From("institutions").
		Where(squirrel.Eq{"name": name}).
		Limit(1).
		ToSql()
	if err != nil {
		return "", err
	}

	var code string
	row := dao.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&code); err != nil {
		if IsNoRows(err) {
			return "", model.NewError("institution", model.ErrNotFound)
		}

		return "", err
	}

	return code, nil
}
