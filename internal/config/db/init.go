// Package db содержит инициализацию подключения к журналу загрузок.
package db

import (
	"context"
	"fmt"

	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	zlog "github.com/rs/zerolog/log"
)

// NewPool создает пул подключений к PostgreSQL с повторами и миграциями.
// Пустой migrationsPath отключает миграции.
func NewPool(ctx context.Context, dsn, migrationsPath string) (*pgxpool.Pool, error) {
	pool, err := Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if migrationsPath == "" {
		return pool, nil
	}
	if err := config.GetRetryIntervals(ctx, func() error {
		return RunMigrations(migrationsPath, dsn)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations after retries: %w", err)
	}

	return pool, nil
}

// Connect открывает пул и проверяет соединение, без миграций.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	if err := config.GetRetryIntervals(ctx, func() error {
		var err error
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	zlog.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}
