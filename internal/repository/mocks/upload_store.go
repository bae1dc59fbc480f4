package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
)

type UploadStoreMock struct {
	InsertUploadFunc func(ctx context.Context, u *models.Upload) error
	ListUploadsFunc  func(ctx context.Context, limit uint64) ([]models.Upload, error)

	mu                sync.Mutex
	InsertUploadCalls int
	ListUploadsCalls  int
}

func (m *UploadStoreMock) InsertUpload(ctx context.Context, u *models.Upload) error {
	m.mu.Lock()
	m.InsertUploadCalls++
	m.mu.Unlock()
	if m.InsertUploadFunc == nil {
		return errors.New("InsertUploadFunc not set")
	}
	return m.InsertUploadFunc(ctx, u)
}

func (m *UploadStoreMock) ListUploads(ctx context.Context, limit uint64) ([]models.Upload, error) {
	m.mu.Lock()
	m.ListUploadsCalls++
	m.mu.Unlock()
	if m.ListUploadsFunc == nil {
		return nil, errors.New("ListUploadsFunc not set")
	}
	return m.ListUploadsFunc(ctx, limit)
}
