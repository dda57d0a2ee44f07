package db

import (
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Spok95/batchflow/migrations"
)

// Migrate applies the embedded goose migrations through database/sql.
func Migrate(dsn string, log *slog.Logger) error {
	goose.SetBaseFS(migrations.FS)
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	if err := goose.Up(sqlDB, "."); err != nil {
		return err
	}
	v, err := goose.GetDBVersion(sqlDB)
	if err == nil {
		log.Info("migrations applied", "version", v)
	}
	return nil
}
