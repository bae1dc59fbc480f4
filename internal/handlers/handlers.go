// Package handlers содержит HTTP-обработчики дашборда.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/RoGogDBD/gtryk-dashboard/internal/backend"
	"github.com/RoGogDBD/gtryk-dashboard/internal/loaders"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository"
	"github.com/RoGogDBD/gtryk-dashboard/internal/upload"
	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	formMemory          = 32 << 20
)

// PageLoader данные страниц.
type PageLoader interface {
	Dashboard(ctx context.Context) loaders.DashboardData
	DashboardDetails(ctx context.Context) (map[string][]models.OrderDetailsWithStatus, error)
	OldOrders(ctx context.Context) loaders.OldOrdersData
	Track(ctx context.Context, orderID string) loaders.TrackData
}

// OrderCache кеш деталей заказов.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID string) ([]models.OrderDetailsWithStatus, error)
	Clear(ctx context.Context) error
}

// Uploader действия загрузки картинок.
type Uploader interface {
	Upload(ctx context.Context, form *multipart.Form) upload.Result
	LegacyUpload(ctx context.Context, form *multipart.Form) upload.Result
	ListUploads(ctx context.Context) upload.ListResult
}

// ErrorResponse тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	pages          PageLoader
	cache          OrderCache
	uploads        Uploader
	ledger         repository.UploadStore
	maxUploadBytes int64
}

// NewHandler создает обработчики. ledger может быть nil, тогда /uploads/history отвечает 503.
func NewHandler(pages PageLoader, cache OrderCache, uploads Uploader, ledger repository.UploadStore, maxUploadBytes int64) *Handler {
	return &Handler{
		pages:          pages,
		cache:          cache,
		uploads:        uploads,
		ledger:         ledger,
		maxUploadBytes: maxUploadBytes,
	}
}

// Register регистрирует маршруты дашборда.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.HealthHandler)

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", h.DashboardHandler)
		r.Get("/details", h.DashboardDetailsHandler)
		r.Get("/uploads", h.ListUploadsHandler)
		r.Post("/upload", h.UploadHandler)
	})
	r.Post("/about/upload", h.LegacyUploadHandler)
	r.Get("/oldorders", h.OldOrdersHandler)
	r.Get("/track/{id}", h.TrackHandler)
	r.Get("/uploads/history", h.UploadHistoryHandler)

	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/cache/reset", h.ResetCacheHandler)
		r.Get("/{id}", h.OrderHandler)
	})
}

// HealthHandler возвращает статус 200 OK и тело "OK" для проверки состояния сервера.
func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// DashboardHandler godoc
// @Summary Dashboard order summaries
// @Tags pages
// @Produce json
// @Success 200 {object} loaders.DashboardData
// @Router /dashboard [get]
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pages.Dashboard(r.Context()))
}

// DashboardDetailsHandler подгружает детали всех заказов дашборда.
// @Summary Order details for every dashboard order
// @Tags pages
// @Produce json
// @Success 200 {object} map[string][]models.OrderDetailsWithStatus
// @Failure 502 {object} ErrorResponse
// @Router /dashboard/details [get]
func (h *Handler) DashboardDetailsHandler(w http.ResponseWriter, r *http.Request) {
	details, err := h.pages.DashboardDetails(r.Context())
	if err != nil {
		zlog.Error().Err(err).Msg("Error loading order details")
		writeError(w, http.StatusBadGateway, "failed to load order details")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// OldOrdersHandler godoc
// @Summary Orders with every item at the final step
// @Tags pages
// @Produce json
// @Success 200 {object} loaders.OldOrdersData
// @Router /oldorders [get]
func (h *Handler) OldOrdersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pages.OldOrders(r.Context()))
}

// TrackHandler отдает 404, если заказ не найден.
// @Summary Track a single order
// @Tags pages
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} loaders.TrackData
// @Failure 404 {object} loaders.TrackData
// @Router /track/{id} [get]
func (h *Handler) TrackHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	data := h.pages.Track(r.Context(), id)
	status := http.StatusOK
	if data.OrderNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, data)
}

// OrderHandler обрабатывает запросы на получение деталей заказа через кеш.
// @Summary Cached order details with step progress
// @Tags orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {array} models.OrderDetailsWithStatus
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/orders/{id} [get]
func (h *Handler) OrderHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing id parameter")
		return
	}

	details, err := h.cache.GetOrder(r.Context(), id)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "order not found")
		return
	case err != nil:
		zlog.Error().Err(err).Str("order_id", id).Msg("Error fetching order details")
		writeError(w, http.StatusBadGateway, "failed to fetch order details")
		return
	case details == nil:
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// ResetCacheHandler godoc
// @Summary Clear the order details cache
// @Tags orders
// @Success 204
// @Router /api/orders/cache/reset [post]
func (h *Handler) ResetCacheHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.Clear(r.Context()); err != nil {
		zlog.Error().Err(err).Msg("Error clearing order cache")
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadHandler принимает форму загрузки. Результат действия всегда отдается с 200,
// успех определяется полем success.
// @Summary Upload an image and create a step definition
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Param image formData file true "Step image"
// @Param name formData string true "Step name"
// @Param description formData string true "Step description"
// @Success 200 {object} upload.Result
// @Router /dashboard/upload [post]
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	form := h.parseForm(w, r)
	if form != nil {
		defer form.RemoveAll()
	}
	writeJSON(w, http.StatusOK, h.uploads.Upload(r.Context(), form))
}

// LegacyUploadHandler godoc
// @Summary Legacy step image upload
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Param image formData file true "Step image"
// @Success 200 {object} upload.Result
// @Router /about/upload [post]
func (h *Handler) LegacyUploadHandler(w http.ResponseWriter, r *http.Request) {
	form := h.parseForm(w, r)
	if form != nil {
		defer form.RemoveAll()
	}
	writeJSON(w, http.StatusOK, h.uploads.LegacyUpload(r.Context(), form))
}

// ListUploadsHandler godoc
// @Summary Uploaded file names
// @Tags uploads
// @Produce json
// @Success 200 {object} upload.ListResult
// @Failure 500 {object} upload.ListResult
// @Router /dashboard/uploads [get]
func (h *Handler) ListUploadsHandler(w http.ResponseWriter, r *http.Request) {
	res := h.uploads.ListUploads(r.Context())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

// UploadHistoryHandler отдает журнал загрузок, новые первыми.
// @Summary Upload ledger, newest first
// @Tags uploads
// @Produce json
// @Param limit query int false "Max rows" default(50)
// @Success 200 {array} models.Upload
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /uploads/history [get]
func (h *Handler) UploadHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "upload ledger is not configured")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploads, err := h.ledger.ListUploads(r.Context(), limit)
	if err != nil {
		zlog.Error().Err(err).Msg("Error listing uploads")
		writeError(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}
	if uploads == nil {
		uploads = []models.Upload{}
	}
	writeJSON(w, http.StatusOK, uploads)
}

// parseForm возвращает nil, если тело не является корректной multipart-формой.
func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) *multipart.Form {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(formMemory); err != nil {
		zlog.Warn().Err(err).Msg("invalid upload form")
		return nil
	}
	return r.MultipartForm
}

func parseLimit(raw string) (uint64, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxHistoryLimit {
		n = maxHistoryLimit
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
