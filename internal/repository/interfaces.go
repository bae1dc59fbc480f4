package repository

import (
	"context"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
)

// OrderEntry значение кеша для одного заказа.
// Failed означает, что последняя загрузка не удалась (аналог null).
type OrderEntry struct {
	Details []models.OrderDetailsWithStatus
	Failed  bool
}

// EntryStore описывает хранилище записей кеша заказов.
type EntryStore interface {
	Get(ctx context.Context, orderID string) (OrderEntry, bool, error)
	Set(ctx context.Context, orderID string, entry OrderEntry) error
	Clear(ctx context.Context) error
	Snapshot(ctx context.Context) (map[string]OrderEntry, error)
}

// UploadStore описывает журнал загрузок.
type UploadStore interface {
	InsertUpload(ctx context.Context, u *models.Upload) error
	ListUploads(ctx context.Context, limit uint64) ([]models.Upload, error)
}
