// Package neon работает с ветками базы данных через Neon REST API.
package neon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL = "https://console.neon.tech/api/v2"
	DefaultDelay   = 5 * time.Second
	MainBranch     = "main"
)

var (
	ErrMainBranch       = errors.New("main branch cannot be modified")
	ErrMainNotFound     = errors.New("main branch not found")
	ErrBranchNotFound   = errors.New("branch not found")
	ErrMissingProjectID = errors.New("project id is required")
	ErrMissingAPIKey    = errors.New("api key is required")
)

// Endpoint вычислительный endpoint ветки.
type Endpoint struct {
	ID   string `json:"id,omitempty"`
	Host string `json:"host,omitempty"`
	Type string `json:"type,omitempty"`
}

// Branch ветка проекта.
type Branch struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ParentID  string     `json:"parent_id,omitempty"`
	Endpoints []Endpoint `json:"endpoints,omitempty"`
}

// APIError неуспешный ответ Neon API. Body содержит тело ответа как есть.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %s", e.Status)
}

type createRequest struct {
	Endpoints []Endpoint   `json:"endpoints"`
	Branch    createBranch `json:"branch"`
}

type createBranch struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

type createResponse struct {
	Branch    Branch     `json:"branch"`
	Endpoints []Endpoint `json:"endpoints"`
}

type listResponse struct {
	Branches []Branch `json:"branches"`
}

// Client клиент веток одного проекта.
type Client struct {
	baseURL    string
	apiKey     string
	projectID  string
	httpClient *http.Client
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option настраивает Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDelay задает паузу между шагами сброса ветки.
func WithDelay(d time.Duration) Option {
	return func(c *Client) { c.delay = d }
}

func NewClient(apiKey, projectID string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if projectID == "" {
		return nil, ErrMissingProjectID
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		projectID:  projectID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      DefaultDelay,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListBranches возвращает все ветки проекта.
func (c *Client) ListBranches(ctx context.Context) ([]Branch, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, c.branchesURL(), nil, &out); err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return out.Branches, nil
}

// FindBranch ищет ветку по имени.
func (c *Client) FindBranch(ctx context.Context, name string) (Branch, error) {
	branches, err := c.ListBranches(ctx)
	if err != nil {
		return Branch{}, err
	}
	for _, b := range branches {
		if b.Name == name {
			return b, nil
		}
	}
	return Branch{}, fmt.Errorf("%w: %s", ErrBranchNotFound, name)
}

// CreateBranch создает ветку с read_write endpoint. Пустой parentID означает
// родителя по умолчанию на стороне Neon.
func (c *Client) CreateBranch(ctx context.Context, name, parentID string) (Branch, error) {
	body := createRequest{
		Endpoints: []Endpoint{{Type: "read_write"}},
		Branch:    createBranch{Name: name, ParentID: parentID},
	}
	var out createResponse
	if err := c.do(ctx, http.MethodPost, c.branchesURL(), body, &out); err != nil {
		return Branch{}, fmt.Errorf("create branch %q: %w", name, err)
	}
	branch := out.Branch
	if len(branch.Endpoints) == 0 {
		branch.Endpoints = out.Endpoints
	}
	return branch, nil
}

// DeleteBranch удаляет ветку по id.
func (c *Client) DeleteBranch(ctx context.Context, branchID string) error {
	if err := c.do(ctx, http.MethodDelete, c.branchesURL()+"/"+branchID, nil, nil); err != nil {
		return fmt.Errorf("delete branch %s: %w", branchID, err)
	}
	return nil
}

// MainBranchID возвращает id ветки main.
func (c *Client) MainBranchID(ctx context.Context) (string, error) {
	mainBranch, err := c.FindBranch(ctx, MainBranch)
	if errors.Is(err, ErrBranchNotFound) {
		return "", ErrMainNotFound
	}
	if err != nil {
		return "", err
	}
	return mainBranch.ID, nil
}

// ResetFromMain пересоздает ветку от main: узнает id main, удаляет ветку и
// создает ее заново с тем же именем. Между шагами выдерживается пауза delay.
// Частично выполненный сброс не откатывается.
func (c *Client) ResetFromMain(ctx context.Context, branch Branch) (Branch, error) {
	if branch.Name == MainBranch {
		return Branch{}, ErrMainBranch
	}

	mainID, err := c.MainBranchID(ctx)
	if err != nil {
		return Branch{}, err
	}
	if err := c.wait(ctx); err != nil {
		return Branch{}, err
	}

	if err := c.DeleteBranch(ctx, branch.ID); err != nil {
		return Branch{}, err
	}
	if err := c.wait(ctx); err != nil {
		return Branch{}, err
	}

	return c.CreateBranch(ctx, branch.Name, mainID)
}

func (c *Client) wait(ctx context.Context) error {
	zlog.Info().Dur("delay", c.delay).Msg("Waiting for operations to complete...")
	return c.sleep(ctx, c.delay)
}

func (c *Client) branchesURL() string {
	return c.baseURL + "/projects/" + c.projectID + "/branches"
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
