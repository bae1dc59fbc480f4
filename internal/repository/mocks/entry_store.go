package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/RoGogDBD/gtryk-dashboard/internal/repository"
)

type EntryStoreMock struct {
	GetFunc      func(ctx context.Context, orderID string) (repository.OrderEntry, bool, error)
	SetFunc      func(ctx context.Context, orderID string, entry repository.OrderEntry) error
	ClearFunc    func(ctx context.Context) error
	SnapshotFunc func(ctx context.Context) (map[string]repository.OrderEntry, error)

	mu            sync.Mutex
	GetCalls      int
	SetCalls      int
	ClearCalls    int
	SnapshotCalls int
}

func (m *EntryStoreMock) Get(ctx context.Context, orderID string) (repository.OrderEntry, bool, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()
	if m.GetFunc == nil {
		return repository.OrderEntry{}, false, errors.New("GetFunc not set")
	}
	return m.GetFunc(ctx, orderID)
}

func (m *EntryStoreMock) Set(ctx context.Context, orderID string, entry repository.OrderEntry) error {
	m.mu.Lock()
	m.SetCalls++
	m.mu.Unlock()
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, orderID, entry)
}

func (m *EntryStoreMock) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.ClearCalls++
	m.mu.Unlock()
	if m.ClearFunc == nil {
		return nil
	}
	return m.ClearFunc(ctx)
}

func (m *EntryStoreMock) Snapshot(ctx context.Context) (map[string]repository.OrderEntry, error) {
	m.mu.Lock()
	m.SnapshotCalls++
	m.mu.Unlock()
	if m.SnapshotFunc == nil {
		return nil, errors.New("SnapshotFunc not set")
	}
	return m.SnapshotFunc(ctx)
}
