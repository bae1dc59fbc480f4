package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	zlog "github.com/rs/zerolog/log"
)

var retryIntervals = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
}

// GetRetryIntervals выполняет op, повторяя его на сетевых ошибках подключения к БД.
func GetRetryIntervals(ctx context.Context, op func() error) error {
	return retryWithIntervals(ctx, retryIntervals, op)
}

func retryWithIntervals(ctx context.Context, intervals []time.Duration, op func() error) error {
	var lastErr error
	for i, wait := range intervals {
		if err := op(); err != nil {
			if isRetriableError(err) {
				lastErr = err
				zlog.Warn().Err(err).
					Int("attempt", i+1).
					Int("max_attempts", len(intervals)).
					Dur("wait", wait).
					Msg("retriable error, retrying")
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
					continue
				}
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("operation failed after retries: %w", lastErr)
}

func isRetriableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" {
			return true
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
