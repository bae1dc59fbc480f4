package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RoGogDBD/gtryk-dashboard/internal/backend"
	"github.com/RoGogDBD/gtryk-dashboard/internal/loaders"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository/mocks"
	"github.com/RoGogDBD/gtryk-dashboard/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
)

type pagesStub struct {
	track      loaders.TrackData
	details    map[string][]models.OrderDetailsWithStatus
	detailsErr error
}

func (p *pagesStub) Dashboard(context.Context) loaders.DashboardData {
	return loaders.DashboardData{
		Orders:         []models.OrderSummary{{OrderID: 7, CustomerName: "Anna", TotalItems: 2}},
		InitialDetails: map[string][]models.OrderDetailsWithStatus{},
	}
}

func (p *pagesStub) DashboardDetails(context.Context) (map[string][]models.OrderDetailsWithStatus, error) {
	return p.details, p.detailsErr
}

func (p *pagesStub) OldOrders(context.Context) loaders.OldOrdersData {
	return loaders.OldOrdersData{Orders: []models.OrderDashboard{}}
}

func (p *pagesStub) Track(_ context.Context, id string) loaders.TrackData {
	d := p.track
	d.OrderID = id
	return d
}

type cacheStub struct {
	details    []models.OrderDetailsWithStatus
	err        error
	clearErr   error
	getCalls   int
	clearCalls int
}

func (c *cacheStub) GetOrder(context.Context, string) ([]models.OrderDetailsWithStatus, error) {
	c.getCalls++
	return c.details, c.err
}

func (c *cacheStub) Clear(context.Context) error {
	c.clearCalls++
	return c.clearErr
}

type uploaderStub struct {
	list      upload.ListResult
	gotForm   *multipart.Form
	gotLegacy bool
}

func (u *uploaderStub) Upload(_ context.Context, form *multipart.Form) upload.Result {
	u.gotForm = form
	if form == nil || len(form.File["image"]) == 0 {
		return upload.Result{Error: "No valid image file provided"}
	}
	return upload.Result{Success: true, Image: "frontend/static/uploads/1_" + form.File["image"][0].Filename}
}

func (u *uploaderStub) LegacyUpload(_ context.Context, form *multipart.Form) upload.Result {
	u.gotForm = form
	u.gotLegacy = true
	return upload.Result{Success: form != nil}
}

func (u *uploaderStub) ListUploads(context.Context) upload.ListResult {
	return u.list
}

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func testDetails() []models.OrderDetailsWithStatus {
	return []models.OrderDetailsWithStatus{{
		ID:               1,
		OrderID:          42,
		Item:             models.Item{ID: 3, Name: "Hoodie"},
		ItemAmount:       2,
		CurrentStepIndex: 0,
		DifferentSteps:   []models.StatusDefinition{{ID: 1, Name: "Print"}, {ID: 2, Name: "Pack"}},
	}}
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler(&pagesStub{}, &cacheStub{}, &uploaderStub{}, nil, 0)

	rr := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestDashboardHandler(t *testing.T) {
	h := NewHandler(&pagesStub{}, &cacheStub{}, &uploaderStub{}, nil, 0)

	rr := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got loaders.DashboardData
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Orders) != 1 || got.Orders[0].OrderID != 7 {
		t.Fatalf("unexpected orders: %+v", got.Orders)
	}
	if got.InitialDetails == nil || len(got.InitialDetails) != 0 {
		t.Fatalf("initialDetails must be an empty object, got %v", got.InitialDetails)
	}
}

func TestDashboardDetailsHandler(t *testing.T) {
	tests := []struct {
		name       string
		pages      *pagesStub
		wantStatus int
	}{
		{
			name:       "ok",
			pages:      &pagesStub{details: map[string][]models.OrderDetailsWithStatus{"42": testDetails()}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "backend down",
			pages:      &pagesStub{detailsErr: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.pages, &cacheStub{}, &uploaderStub{}, nil, 0)
			rr := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/details", nil))
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestTrackHandler(t *testing.T) {
	tests := []struct {
		name       string
		track      loaders.TrackData
		wantStatus int
	}{
		{name: "found", track: loaders.TrackData{Order: testDetails()}, wantStatus: http.StatusOK},
		{name: "not found", track: loaders.TrackData{OrderNotFound: true}, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&pagesStub{track: tt.track}, &cacheStub{}, &uploaderStub{}, nil, 0)

			rr := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/track/42", nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			var got loaders.TrackData
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.OrderID != "42" {
				t.Fatalf("orderId = %q", got.OrderID)
			}
			if got.OrderNotFound != tt.track.OrderNotFound {
				t.Fatalf("orderNotFound = %v", got.OrderNotFound)
			}
		})
	}
}

func TestOrderHandler(t *testing.T) {
	tests := []struct {
		name       string
		cache      *cacheStub
		wantStatus int
		wantBody   bool
	}{
		{name: "cached", cache: &cacheStub{details: testDetails()}, wantStatus: http.StatusOK, wantBody: true},
		{name: "failure sentinel", cache: &cacheStub{}, wantStatus: http.StatusNotFound},
		{
			name:       "backend 404",
			cache:      &cacheStub{err: fmt.Errorf("get order: %w", &backend.StatusError{StatusCode: http.StatusNotFound})},
			wantStatus: http.StatusNotFound,
		},
		{name: "backend down", cache: &cacheStub{err: errors.New("dial tcp: refused")}, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&pagesStub{}, tt.cache, &uploaderStub{}, nil, 0)

			rr := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/42", nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
			if tt.cache.getCalls != 1 {
				t.Fatalf("expected 1 cache lookup, got %d", tt.cache.getCalls)
			}
			if !tt.wantBody {
				var e ErrorResponse
				if err := json.NewDecoder(rr.Body).Decode(&e); err != nil || e.Error == "" {
					t.Fatalf("expected error body, got %q", rr.Body.String())
				}
				return
			}
			var got []models.OrderDetailsWithStatus
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(testDetails(), got); diff != "" {
				t.Fatalf("details mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResetCacheHandler(t *testing.T) {
	cache := &cacheStub{}
	h := NewHandler(&pagesStub{}, cache, &uploaderStub{}, nil, 0)

	rr := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/orders/cache/reset", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if cache.clearCalls != 1 {
		t.Fatalf("expected Clear once, got %d", cache.clearCalls)
	}
}

func multipartBody(t *testing.T, withFile bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("name", "Print"); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("description", "DTF print"); err != nil {
		t.Fatal(err)
	}
	if withFile {
		fw, err := mw.CreateFormFile("image", "print.png")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte("png"))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	tests := []struct {
		name        string
		withFile    bool
		contentType string
		wantSuccess bool
	}{
		{name: "with file", withFile: true, wantSuccess: true},
		{name: "no file attached", withFile: false},
		{name: "not multipart", contentType: "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &uploaderStub{}
			h := NewHandler(&pagesStub{}, &cacheStub{}, up, nil, 1<<20)

			body, ct := multipartBody(t, tt.withFile)
			if tt.contentType != "" {
				ct = tt.contentType
			}
			req := httptest.NewRequest(http.MethodPost, "/dashboard/upload", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rr.Code)
			}
			var got upload.Result
			if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Success != tt.wantSuccess {
				t.Fatalf("success = %v, error = %q", got.Success, got.Error)
			}
			if tt.contentType != "" && up.gotForm != nil {
				t.Fatal("expected nil form for a non-multipart body")
			}
		})
	}
}

func TestLegacyUploadHandler(t *testing.T) {
	up := &uploaderStub{}
	h := NewHandler(&pagesStub{}, &cacheStub{}, up, nil, 1<<20)

	body, ct := multipartBody(t, true)
	req := httptest.NewRequest(http.MethodPost, "/about/upload", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !up.gotLegacy {
		t.Fatalf("legacy upload not called, status %d", rr.Code)
	}
}

func TestListUploadsHandler(t *testing.T) {
	tests := []struct {
		name       string
		list       upload.ListResult
		wantStatus int
	}{
		{name: "ok", list: upload.ListResult{Success: true, Files: []string{"a.png"}}, wantStatus: http.StatusOK},
		{name: "fail", list: upload.ListResult{Error: "Failed to fetch uploaded files."}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&pagesStub{}, &cacheStub{}, &uploaderStub{list: tt.list}, nil, 0)
			rr := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/dashboard/uploads", nil))
			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestUploadHistoryHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		ledger     *mocks.UploadStoreMock
		wantStatus int
		wantLimit  uint64
	}{
		{
			name:       "default limit",
			ledger:     &mocks.UploadStoreMock{ListUploadsFunc: listOK},
			wantStatus: http.StatusOK,
			wantLimit:  defaultHistoryLimit,
		},
		{
			name:       "capped limit",
			query:      "?limit=100000",
			ledger:     &mocks.UploadStoreMock{ListUploadsFunc: listOK},
			wantStatus: http.StatusOK,
			wantLimit:  maxHistoryLimit,
		},
		{
			name:       "bad limit",
			query:      "?limit=abc",
			ledger:     &mocks.UploadStoreMock{ListUploadsFunc: listOK},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "db error",
			ledger: &mocks.UploadStoreMock{ListUploadsFunc: func(context.Context, uint64) ([]models.Upload, error) {
				return nil, errors.New("db down")
			}},
			wantStatus: http.StatusInternalServerError,
			wantLimit:  defaultHistoryLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLimit uint64
			inner := tt.ledger.ListUploadsFunc
			tt.ledger.ListUploadsFunc = func(ctx context.Context, limit uint64) ([]models.Upload, error) {
				gotLimit = limit
				return inner(ctx, limit)
			}
			h := NewHandler(&pagesStub{}, &cacheStub{}, &uploaderStub{}, tt.ledger, 0)

			rr := httptest.NewRecorder()
			newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/history"+tt.query, nil))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if gotLimit != tt.wantLimit {
				t.Fatalf("limit = %d, want %d", gotLimit, tt.wantLimit)
			}
		})
	}
}

func TestUploadHistoryHandler_NoLedger(t *testing.T) {
	h := NewHandler(&pagesStub{}, &cacheStub{}, &uploaderStub{}, nil, 0)

	rr := httptest.NewRecorder()
	newRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/uploads/history", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not configured") {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func listOK(context.Context, uint64) ([]models.Upload, error) {
	return []models.Upload{{ID: "u1", FileName: "1_print.png"}}, nil
}
