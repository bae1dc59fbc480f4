package orderstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository/mocks"
	"github.com/google/go-cmp/cmp"
)

type fetcherStub struct {
	calls atomic.Int32
	fn    func(orderID string) ([]models.OrderDetailsWithStatus, error)
}

func (f *fetcherStub) GetOrderDetails(_ context.Context, orderID string) ([]models.OrderDetailsWithStatus, error) {
	f.calls.Add(1)
	return f.fn(orderID)
}

func healthyFetcher() *fetcherStub {
	return &fetcherStub{fn: func(orderID string) ([]models.OrderDetailsWithStatus, error) {
		return testDetails(orderID), nil
	}}
}

func TestStore_GetOrderCachesSuccess(t *testing.T) {
	ctx := context.Background()
	fetcher := healthyFetcher()
	store := New(fetcher, nil)

	first, err := store.GetOrder(ctx, "42")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := store.GetOrder(ctx, "42")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if got := fetcher.calls.Load(); got != 1 {
		t.Fatalf("expected 1 backend call, got %d", got)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached data differs (-first +second):\n%s", diff)
	}
}

func TestStore_GetOrderCachesFailure(t *testing.T) {
	ctx := context.Background()
	fetchErr := errors.New("Order not found")
	fetcher := &fetcherStub{fn: func(string) ([]models.OrderDetailsWithStatus, error) {
		return nil, fetchErr
	}}
	store := New(fetcher, nil)

	if _, err := store.GetOrder(ctx, "7"); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error to be returned, got %v", err)
	}

	got, err := store.GetOrder(ctx, "7")
	if err != nil {
		t.Fatalf("second call must not fail, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for cached failure, got %v", got)
	}
	if calls := fetcher.calls.Load(); calls != 1 {
		t.Fatalf("expected no re-fetch after failure, got %d calls", calls)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	details, ok := snap["7"]
	if !ok || details != nil {
		t.Fatalf("expected nil entry for failed order in snapshot, got %v (present=%v)", details, ok)
	}
}

func TestStore_GetOrderAbortedRequestIsNotCached(t *testing.T) {
	tests := []struct {
		name     string
		ctx      func() context.Context
		abortErr error
	}{
		{
			name: "cancelled request context",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			abortErr: context.Canceled,
		},
		{
			name:     "deadline from transport",
			ctx:      context.Background,
			abortErr: fmt.Errorf("get order: %w", context.DeadlineExceeded),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var aborted atomic.Bool
			aborted.Store(true)
			fetcher := &fetcherStub{fn: func(orderID string) ([]models.OrderDetailsWithStatus, error) {
				if aborted.Load() {
					return nil, tt.abortErr
				}
				return testDetails(orderID), nil
			}}
			store := New(fetcher, nil)

			if _, err := store.GetOrder(tt.ctx(), "11"); err == nil {
				t.Fatal("expected the aborted fetch error")
			}
			snap, err := store.Snapshot(context.Background())
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if _, ok := snap["11"]; ok {
				t.Fatalf("aborted fetch must not leave a cache entry, got %v", snap)
			}

			aborted.Store(false)
			got, err := store.GetOrder(context.Background(), "11")
			if err != nil {
				t.Fatalf("second call: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("expected details on retry, got %v", got)
			}
			if calls := fetcher.calls.Load(); calls != 2 {
				t.Fatalf("expected the backend to be asked again, got %d calls", calls)
			}
		})
	}
}

func TestStore_ClearForcesRefetch(t *testing.T) {
	ctx := context.Background()
	fetcher := healthyFetcher()
	store := New(fetcher, nil)

	for _, id := range []string{"1", "2"} {
		if _, err := store.GetOrder(ctx, id); err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 0 {
		t.Fatalf("expected empty cache after clear, got %d entries", len(snap))
	}

	if _, err := store.GetOrder(ctx, "1"); err != nil {
		t.Fatalf("get after clear: %v", err)
	}
	if got := fetcher.calls.Load(); got != 3 {
		t.Fatalf("expected fresh fetch after clear, got %d calls", got)
	}
}

func TestStore_EntryStoreErrorFallsBackToFetch(t *testing.T) {
	ctx := context.Background()
	fetcher := healthyFetcher()
	entries := &mocks.EntryStoreMock{
		GetFunc: func(context.Context, string) (repository.OrderEntry, bool, error) {
			return repository.OrderEntry{}, false, errors.New("connection refused")
		},
	}
	store := New(fetcher, entries)

	got, err := store.GetOrder(ctx, "9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || fetcher.calls.Load() != 1 || entries.SetCalls != 1 {
		t.Fatalf("expected fetch and write-through, got details=%d calls=%d sets=%d",
			len(got), fetcher.calls.Load(), entries.SetCalls)
	}
}

func TestStore_ConcurrentMissesMayDuplicate(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	fetcher := &fetcherStub{fn: func(orderID string) ([]models.OrderDetailsWithStatus, error) {
		started.Done()
		<-release
		return testDetails(orderID), nil
	}}
	store := New(fetcher, nil)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.GetOrder(ctx, "5"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	started.Wait()
	close(release)
	wg.Wait()

	if got := fetcher.calls.Load(); got != 2 {
		t.Fatalf("expected both concurrent misses to reach the backend, got %d", got)
	}
}

func TestStore_Warm(t *testing.T) {
	ctx := context.Background()
	fetcher := &fetcherStub{fn: func(orderID string) ([]models.OrderDetailsWithStatus, error) {
		if orderID == "bad" {
			return nil, errors.New("boom")
		}
		return testDetails(orderID), nil
	}}
	store := New(fetcher, nil)

	if err := store.Warm(ctx, []string{"1", "2", "bad"}, 2); err != nil {
		t.Fatalf("warm: %v", err)
	}
	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 3 || snap["bad"] != nil || len(snap["1"]) != 1 {
		t.Fatalf("unexpected snapshot after warm: %v", snap)
	}
}

func testDetails(orderID string) []models.OrderDetailsWithStatus {
	return []models.OrderDetailsWithStatus{
		{
			ID:               1,
			Item:             models.Item{ID: 3, Name: "Tote bag " + orderID},
			ItemAmount:       2,
			CurrentStepIndex: 1,
			DifferentSteps: []models.StatusDefinition{
				{ID: 1, Name: "Received"},
				{ID: 2, Name: "Printing"},
				{ID: 3, Name: "Shipped"},
			},
		},
	}
}
