package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rigelview/obs-portal/assets"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const _defaultTimeout = 3 * time.Second

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// DB wraps the sqlx handle together with a query builder configured for the
// active driver. Production runs against Postgres; SQLite carries the
// single-node deployments the portal started on and keeps DAO tests hermetic.
type DB struct {
	*sqlx.DB
	Builder squirrel.StatementBuilderType
	driver  string
}

func New(driver, dsn string, automigrate bool) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), _defaultTimeout)
	defer cancel()

	var (
		connDSN      string
		migrateDSN   string
		migrationDir string
		placeholder  squirrel.PlaceholderFormat
	)

	switch driver {
	case DriverPostgres:
		connDSN = "postgres://" + dsn + "?sslmode=disable"
		migrateDSN = connDSN
		migrationDir = "migrations/postgres"
		placeholder = squirrel.Dollar
	case DriverSQLite:
		connDSN = dsn
		migrateDSN = "sqlite3://" + dsn
		migrationDir = "migrations/sqlite"
		placeholder = squirrel.Question
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, connDSN)
	if err != nil {
		return nil, err
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)
		db.SetConnMaxLifetime(2 * time.Hour)
	} else {
		// A single connection serializes SQLite writers and keeps an
		// in-memory database alive across transactions.
		db.SetMaxOpenConns(1)
	}

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, migrationDir)
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, migrateDSN)
		if err != nil {
			return nil, err
		}

		err = migrator.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			break
		case err != nil:
			return nil, err
		}
	}

	return &DB{
		DB:      db,
		Builder: squirrel.StatementBuilder.PlaceholderFormat(placeholder),
		driver:  driver,
	}, nil
}

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx, letting
// DAO reads run either standalone or inside a caller's transaction.
type Querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// lockObservations takes a table-level write lock spanning a
// check-then-insert sequence, so two identical concurrent submissions
// cannot both pass the duplicate check. SQLite already has a single writer.
func (db *DB) lockObservations(ctx context.Context, tx *sqlx.Tx) error {
	if db.driver != DriverPostgres {
		return nil
	}

	_, err := tx.ExecContext(ctx, "LOCK TABLE observations IN SHARE ROW EXCLUSIVE MODE")
	return err
}
