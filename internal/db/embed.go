// Package db holds the SQL schema applied by cmd/migrate.
package db

import "embed"

// Migrations contains the goose migration files
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that goose reads from
const MigrationsDir = "migrations"
