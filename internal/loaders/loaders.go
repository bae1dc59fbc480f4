// Package loaders собирает данные для страниц дашборда.
package loaders

import (
	"context"
	"strconv"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	zlog "github.com/rs/zerolog/log"
)

// OrderSource чтение заказов из бэкенда.
type OrderSource interface {
	GetOrderSummaries(ctx context.Context) ([]models.OrderSummary, error)
	GetAllOrders(ctx context.Context) ([]models.OrderDashboard, error)
}

// OrderCache кеш деталей заказов.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID string) ([]models.OrderDetailsWithStatus, error)
	Warm(ctx context.Context, ids []string, limit int) error
	Snapshot(ctx context.Context) (map[string][]models.OrderDetailsWithStatus, error)
}

// DashboardData данные главной страницы.
type DashboardData struct {
	Orders         []models.OrderSummary                      `json:"orders"`
	InitialDetails map[string][]models.OrderDetailsWithStatus `json:"initialDetails"`
}

// OldOrdersData данные страницы завершенных заказов. Orders равен nil при ошибке.
type OldOrdersData struct {
	Orders []models.OrderDashboard `json:"orders"`
	Error  string                  `json:"error,omitempty"`
}

// ItemProgress строка заказа с разложенными шагами.
type ItemProgress struct {
	ID       int64                 `json:"id"`
	Item     models.Item           `json:"item"`
	Percent  int                   `json:"percent"`
	Complete bool                  `json:"complete"`
	Steps    []models.StepProgress `json:"steps"`
}

// TrackData данные страницы отслеживания заказа.
type TrackData struct {
	Order         []models.OrderDetailsWithStatus `json:"order"`
	Progress      []ItemProgress                  `json:"progress,omitempty"`
	OrderNotFound bool                            `json:"orderNotFound"`
	OrderID       string                          `json:"orderId"`
}

// Loader загрузчики страниц.
type Loader struct {
	source    OrderSource
	cache     OrderCache
	warmLimit int
}

func New(source OrderSource, cache OrderCache, warmLimit int) *Loader {
	return &Loader{source: source, cache: cache, warmLimit: warmLimit}
}

// Dashboard загружает сводки заказов. Детали подгружаются отдельно, поэтому
// InitialDetails всегда пуст. При ошибке возвращается пустой список.
func (l *Loader) Dashboard(ctx context.Context) DashboardData {
	data := DashboardData{
		Orders:         []models.OrderSummary{},
		InitialDetails: map[string][]models.OrderDetailsWithStatus{},
	}
	summaries, err := l.source.GetOrderSummaries(ctx)
	if err != nil {
		zlog.Error().Err(err).Msg("Error loading orders")
		return data
	}
	if summaries != nil {
		data.Orders = summaries
	}
	return data
}

// DashboardDetails прогревает кеш для всех заказов из сводки и возвращает их детали.
func (l *Loader) DashboardDetails(ctx context.Context) (map[string][]models.OrderDetailsWithStatus, error) {
	summaries, err := l.source.GetOrderSummaries(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, strconv.FormatInt(s.OrderID, 10))
	}
	if err := l.cache.Warm(ctx, ids, l.warmLimit); err != nil {
		return nil, err
	}

	snap, err := l.cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.OrderDetailsWithStatus, len(ids))
	for _, id := range ids {
		if details, ok := snap[id]; ok {
			out[id] = details
		}
	}
	return out, nil
}

// OldOrders оставляет только заказы, все строки которых на последнем шаге.
func (l *Loader) OldOrders(ctx context.Context) OldOrdersData {
	orders, err := l.source.GetAllOrders(ctx)
	if err != nil {
		zlog.Error().Err(err).Msg("Error loading orders")
		return OldOrdersData{Error: err.Error()}
	}
	return OldOrdersData{Orders: CompletedOrders(orders)}
}

// CompletedOrders фильтр для OldOrders.
func CompletedOrders(orders []models.OrderDashboard) []models.OrderDashboard {
	out := make([]models.OrderDashboard, 0, len(orders))
	for _, o := range orders {
		if o.IsComplete() {
			out = append(out, o)
		}
	}
	return out
}

// Track загружает заказ через кеш. Ошибка и закешированная неудача дают
// OrderNotFound. Пустой массив от бэкенда считается найденным заказом без строк.
func (l *Loader) Track(ctx context.Context, orderID string) TrackData {
	data := TrackData{OrderID: orderID}

	details, err := l.cache.GetOrder(ctx, orderID)
	if err != nil {
		zlog.Debug().Err(err).Str("order_id", orderID).Msg("track: order lookup failed")
	}
	if err != nil || details == nil {
		data.OrderNotFound = true
		return data
	}

	data.Order = details
	data.Progress = make([]ItemProgress, 0, len(details))
	for _, d := range details {
		data.Progress = append(data.Progress, ItemProgress{
			ID:       d.ID,
			Item:     d.Item,
			Percent:  d.Percent(),
			Complete: d.IsComplete(),
			Steps:    d.Steps(),
		})
	}
	return data
}
