package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/kevin07696/recurringhub/internal/adapters/secrets"
	"github.com/kevin07696/recurringhub/internal/config"
	"github.com/kevin07696/recurringhub/internal/db"
)

const dialect = "postgres"

var (
	flags = flag.NewFlagSet("migrate", flag.ExitOnError)
	dir   = flags.String("dir", "", "read migrations from this directory instead of the embedded set")
)

func main() {
	flags.Usage = usage
	_ = flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) < 1 {
		flags.Usage()
		return
	}

	command := args[0]

	// Migrations always target PostgreSQL whatever the server's storage driver
	if os.Getenv("STORAGE_DRIVER") == "" {
		_ = os.Setenv("STORAGE_DRIVER", config.StoragePostgres)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := resolveSecrets(cfg); err != nil {
		log.Fatalf("failed to resolve secrets: %v", err)
	}

	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := goose.SetDialect(dialect); err != nil {
		log.Fatalf("failed to set dialect: %v", err)
	}

	migrationsDir := *dir
	if migrationsDir == "" {
		goose.SetBaseFS(db.Migrations)
		migrationsDir = db.MigrationsDir
	}

	if err := goose.Run(command, sqlDB, migrationsDir, args[1:]...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}
}

func resolveSecrets(cfg *config.Config) error {
	ctx := context.Background()
	logger := zap.NewNop()
	provider, err := cfg.Secrets.NewSecretProvider(ctx, logger)
	if err != nil {
		return err
	}
	return cfg.ResolveSecrets(ctx, secrets.NewResolver(provider, logger))
}

func usage() {
	fmt.Print(`Usage: migrate [-dir DIR] COMMAND

Connection settings come from DB_HOST, DB_PORT, DB_USER, DB_PASSWORD,
DB_NAME and DB_SSL_MODE (or a .env file).

Commands:
    up                   Migrate the DB to the most recent version available
    up-by-one            Migrate the DB up by 1
    up-to VERSION        Migrate the DB to a specific VERSION
    down                 Roll back the version by 1
    down-to VERSION      Roll back to a specific VERSION
    redo                 Re-run the latest migration
    reset                Roll back all migrations
    status               Dump the migration status for the current DB
    version              Print the current version of the database

Examples:
    migrate up
    migrate status
    migrate -dir internal/db/migrations down
`)
}
