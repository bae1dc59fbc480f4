package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // регистрация драйвера Postgres
	_ "github.com/golang-migrate/migrate/v4/source/file"       // регистрация файлового источника
	_ "github.com/lib/pq"                                      // регистрация драйвера Postgres для миграций
	zlog "github.com/rs/zerolog/log"
)

// RunMigrations применяет миграции журнала загрузок.
func RunMigrations(migrationsPath, dsn string) error {
	m, err := migrate.New(migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			zlog.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("failed to close migrator")
		}
	}()

	zlog.Info().Str("path", migrationsPath).Msg("Applying migrations...")

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			zlog.Info().Msg("No new migrations to apply. Database is up-to-date.")
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	zlog.Info().Msg("Migrations applied successfully.")
	return nil
}
