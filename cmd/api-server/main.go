package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/rigelview/obs-portal/internal/auth"
	"github.com/rigelview/obs-portal/internal/database"
	"github.com/rigelview/obs-portal/internal/env"
	"github.com/rigelview/obs-portal/internal/version"
)

var (
	_cfgFile     = flag.String("cfg", "", "path to config file")
	_showVersion = flag.Bool("version", false, "display version and exit")
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

type config struct {
	httpHost string
	httpPort int
	db       struct {
		driver      string
		dsn         string
		automigrate bool
	}
	uploadDir string
}

type application struct {
	config     config
	db         *database.DB
	sessions   *auth.SessionManager
	baseLogger *slog.Logger
	wg         sync.WaitGroup
}

func run(logger *slog.Logger) error {
	flag.Parse()

	if *_showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	var cfg config

	if *_cfgFile != "" {
		err := env.Load(*_cfgFile)
		if err != nil {
			return err
		}
	}

	cfg.httpHost = env.GetString("HTTP_HOST", "localhost")
	cfg.httpPort = env.GetInt("HTTP_PORT", 8080)
	cfg.db.driver = env.GetString("DB_DRIVER", database.DriverPostgres)
	cfg.db.dsn = env.GetString("DB_DSN", "postgres:postgres@localhost:5432/postgres")
	cfg.db.automigrate = env.GetBool("DB_AUTOMIGRATE", true)
	cfg.uploadDir = env.GetString("UPLOAD_DIR", os.TempDir())

	db, err := database.New(cfg.db.driver, cfg.db.dsn, cfg.db.automigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	app := &application{
		config:     cfg,
		db:         db,
		sessions:   auth.NewSessionManager(logger, db),
		baseLogger: logger,
	}

	return app.serveHTTP()
}
