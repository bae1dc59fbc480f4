package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_WaitDuration(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, time.Second, false)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 100 * time.Millisecond},
		{attempt: 1, want: 200 * time.Millisecond},
		{attempt: 3, want: 800 * time.Millisecond},
		{attempt: 4, want: time.Second},
		{attempt: 60, want: time.Second},
		{attempt: -1, want: 0},
	}
	for _, tt := range tests {
		if got := b.WaitDuration(tt.attempt); got != tt.want {
			t.Fatalf("WaitDuration(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}

	var nilBackoff *Backoff
	if nilBackoff.WaitDuration(2) != 0 {
		t.Fatalf("nil backoff must not wait")
	}

	jittered := NewBackoff(10*time.Millisecond, 0, true)
	for i := 0; i < 20; i++ {
		if got := jittered.WaitDuration(1); got < 0 || got > 20*time.Millisecond {
			t.Fatalf("jittered wait out of range: %s", got)
		}
	}
}

func TestDo(t *testing.T) {
	errTemporary := errors.New("temporary")
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		failures  []error
		policy    Policy
		wantErr   error
		wantCalls int
	}{
		{
			name:      "first try succeeds",
			policy:    Policy{MaxRetries: 3},
			wantCalls: 1,
		},
		{
			name:      "succeeds after retries",
			failures:  []error{errTemporary, errTemporary},
			policy:    Policy{MaxRetries: 3},
			wantCalls: 3,
		},
		{
			name:      "gives up",
			failures:  []error{errTemporary, errTemporary, errTemporary},
			policy:    Policy{MaxRetries: 1},
			wantErr:   errTemporary,
			wantCalls: 2,
		},
		{
			name:     "non retriable",
			failures: []error{errFatal},
			policy: Policy{MaxRetries: 5, ShouldRetry: func(err error) bool {
				return !errors.Is(err, errFatal)
			}},
			wantErr:   errFatal,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			notified := 0
			err := Do(context.Background(), tt.policy, func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}, func(error, int, time.Duration) { notified++ })

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if notified != max(calls-1, 0) && tt.wantErr == nil {
				t.Fatalf("expected %d notifications, got %d", calls-1, notified)
			}
		})
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Policy{MaxRetries: 3}, func(context.Context) error { return nil }, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
