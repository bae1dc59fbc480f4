// Package orderstore кеширует детали заказов, полученные от бэкенда.
//
// Для каждого id кеш хранит либо полученные строки заказа, либо отметку о
// неудачной загрузке. Записи появляются при первом обращении и исчезают только
// после Clear. Блокировок на ключ нет: параллельные GetOrder для одного id
// могут оба сходить в бэкенд, побеждает последняя запись.
package orderstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"
)

const meterName = "github.com/RoGogDBD/gtryk-dashboard/internal/orderstore"

// Fetcher загружает строки заказа из бэкенда.
type Fetcher interface {
	GetOrderDetails(ctx context.Context, orderID string) ([]models.OrderDetailsWithStatus, error)
}

// Store кеш деталей заказов.
type Store struct {
	fetcher Fetcher
	entries repository.EntryStore
	lookups metric.Int64Counter
}

// New создает кеш поверх entries. nil entries означает хранение в памяти.
func New(fetcher Fetcher, entries repository.EntryStore) *Store {
	if entries == nil {
		entries = repository.NewMemStorage()
	}
	lookups, err := otel.Meter(meterName).Int64Counter(
		"orderstore.lookups",
		metric.WithDescription("Order cache lookups by result"),
	)
	if err != nil {
		lookups = noop.Int64Counter{}
	}
	return &Store{fetcher: fetcher, entries: entries, lookups: lookups}
}

// GetOrder возвращает строки заказа.
//
// Если в кеше есть данные, бэкенд не вызывается. Если в кеше отметка о
// неудаче, возвращается (nil, nil) тоже без запроса. Иначе заказ загружается:
// успех кладется в кеш, неудача кладется как отметка и ошибка возвращается.
func (s *Store) GetOrder(ctx context.Context, orderID string) ([]models.OrderDetailsWithStatus, error) {
	entry, found, err := s.entries.Get(ctx, orderID)
	if err != nil {
		zlog.Warn().Err(err).Str("order_id", orderID).Msg("order cache read failed, fetching from backend")
	}
	if err == nil && found {
		if entry.Failed {
			s.count(ctx, "failed_hit")
			return nil, nil
		}
		s.count(ctx, "hit")
		return entry.Details, nil
	}

	s.count(ctx, "miss")
	details, fetchErr := s.fetcher.GetOrderDetails(ctx, orderID)
	if fetchErr != nil {
		// Отмена запроса клиентом не говорит о заказе ничего, такую неудачу не кешируем.
		if isCallerAbort(ctx, fetchErr) {
			return nil, fetchErr
		}
		if err := s.entries.Set(ctx, orderID, repository.OrderEntry{Failed: true}); err != nil {
			zlog.Warn().Err(err).Str("order_id", orderID).Msg("failed to cache order failure")
		}
		return nil, fetchErr
	}

	if err := s.entries.Set(ctx, orderID, repository.OrderEntry{Details: details}); err != nil {
		zlog.Warn().Err(err).Str("order_id", orderID).Msg("failed to cache order")
	}
	return details, nil
}

// Clear сбрасывает весь кеш.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.entries.Clear(ctx); err != nil {
		return fmt.Errorf("clear order cache: %w", err)
	}
	return nil
}

// Snapshot возвращает копию кеша. Неудачные загрузки представлены nil.
func (s *Store) Snapshot(ctx context.Context) (map[string][]models.OrderDetailsWithStatus, error) {
	entries, err := s.entries.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot order cache: %w", err)
	}
	out := make(map[string][]models.OrderDetailsWithStatus, len(entries))
	for id, entry := range entries {
		if entry.Failed {
			out[id] = nil
			continue
		}
		out[id] = entry.Details
	}
	return out, nil
}

// Warm загружает заказы ids не более чем limit параллельно.
// Ошибки отдельных заказов только логируются, они уже закешированы как неудачи.
func (s *Store) Warm(ctx context.Context, ids []string, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := s.GetOrder(gctx, id); err != nil {
				zlog.Debug().Err(err).Str("order_id", id).Msg("warm: order fetch failed")
			}
			return nil
		})
	}
	return g.Wait()
}

func isCallerAbort(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Store) count(ctx context.Context, result string) {
	s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
