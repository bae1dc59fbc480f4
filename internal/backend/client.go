// Package backend содержит HTTP-клиент API заказов и статусов.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	ordersPath                 = "/api/orders/"
	orderSummariesPath         = "/api/orders/summaries"
	dashboardOrdersPath        = "/api/orders/dashboard"
	allOrdersPath              = "/api/get-all-orders"
	createStatusDefinitionPath = "/api/create-status-definition"
	legacyStatusDefinitionPath = "/api/status-definitions"
)

// ErrNotFound возвращается, когда бэкенд ответил 404.
var ErrNotFound = errors.New("not found")

// StatusError неуспешный HTTP-ответ бэкенда.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// Is позволяет сравнивать 404 с ErrNotFound через errors.Is.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// StatusDefinitionRequest тело создания нового шага.
type StatusDefinitionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Client обращается к API заказов.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создает клиент с трассируемым транспортом.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewClientWithHTTP позволяет подменить http.Client, например в тестах.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

// GetOrderDetails возвращает строки заказа с прогрессом по шагам.
func (c *Client) GetOrderDetails(ctx context.Context, orderID string) ([]models.OrderDetailsWithStatus, error) {
	var out []models.OrderDetailsWithStatus
	if err := c.getJSON(ctx, ordersPath+url.PathEscape(orderID), &out); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return out, nil
}

// GetOrderSummaries возвращает сводки для списка на дашборде.
func (c *Client) GetOrderSummaries(ctx context.Context) ([]models.OrderSummary, error) {
	var out []models.OrderSummary
	if err := c.getJSON(ctx, orderSummariesPath, &out); err != nil {
		return nil, fmt.Errorf("get order summaries: %w", err)
	}
	return out, nil
}

// GetDashboardOrders возвращает заказы в формате дашборда.
func (c *Client) GetDashboardOrders(ctx context.Context) ([]models.OrderDashboard, error) {
	var out []models.OrderDashboard
	if err := c.getJSON(ctx, dashboardOrdersPath, &out); err != nil {
		return nil, fmt.Errorf("get dashboard orders: %w", err)
	}
	return out, nil
}

// GetAllOrders возвращает все заказы со всеми строками.
func (c *Client) GetAllOrders(ctx context.Context) ([]models.OrderDashboard, error) {
	var out []models.OrderDashboard
	if err := c.getJSON(ctx, allOrdersPath, &out); err != nil {
		return nil, fmt.Errorf("get all orders: %w", err)
	}
	return out, nil
}

// CreateStatusDefinition создает шаг через /api/create-status-definition.
func (c *Client) CreateStatusDefinition(ctx context.Context, req StatusDefinitionRequest) error {
	if err := c.postJSON(ctx, createStatusDefinitionPath, req); err != nil {
		return fmt.Errorf("create status definition: %w", err)
	}
	return nil
}

// CreateStatusDefinitionLegacy создает шаг через старый /api/status-definitions.
func (c *Client) CreateStatusDefinitionLegacy(ctx context.Context, req StatusDefinitionRequest) error {
	if err := c.postJSON(ctx, legacyStatusDefinitionPath, req); err != nil {
		return fmt.Errorf("create status definition (legacy): %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// readStatusError достает message (или error) из JSON-тела ошибки.
// Тело другого вида (HTML-страница прокси и т.п.) пользователю не показывается,
// Message остается пустым.
func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	se := &StatusError{StatusCode: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return se
	}
	se.Message = body.Message
	if se.Message == "" {
		se.Message = body.Error
	}
	return se
}
