package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/retry"
	"github.com/segmentio/kafka-go"
)

type writerStub struct {
	failures []error
	written  []kafka.Message
	calls    int
}

func (w *writerStub) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls++
	if w.calls <= len(w.failures) {
		return w.failures[w.calls-1]
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *writerStub) Close() error { return nil }

func TestPublisher_PublishStepCreated(t *testing.T) {
	tests := []struct {
		name      string
		failures  []error
		wantErr   bool
		wantCalls int
	}{
		{name: "ok", wantCalls: 1},
		{name: "temporary error retried", failures: []error{kafka.LeaderNotAvailable}, wantCalls: 2},
		{name: "permanent error", failures: []error{kafka.TopicAuthorizationFailed}, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &writerStub{failures: tt.failures}
			p := newPublisher(w, retry.Policy{MaxRetries: 2, ShouldRetry: isTemporary})

			ev := models.StepDefinitionCreated{EventID: "evt-1", Name: "Cutting", Image: "frontend/static/uploads/1_a.png"}
			err := p.PublishStepCreated(context.Background(), ev)
			if tt.wantErr != (err != nil) {
				t.Fatalf("unexpected error state: %v", err)
			}
			if w.calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", w.calls, tt.wantCalls)
			}
			if tt.wantErr {
				return
			}
			msg := w.written[0]
			if string(msg.Key) != "evt-1" || headerValue(msg, headerEventType) != EventTypeStepCreated {
				t.Fatalf("unexpected message key/headers: %+v", msg)
			}
			var got models.StepDefinitionCreated
			if err := json.Unmarshal(msg.Value, &got); err != nil || got.Name != "Cutting" {
				t.Fatalf("unexpected payload %s (%v)", msg.Value, err)
			}
		})
	}
}

type readerStub struct {
	msgs   []kafka.Message
	closed bool
}

func (r *readerStub) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *readerStub) Close() error {
	r.closed = true
	return nil
}

func TestConsume(t *testing.T) {
	valid, _ := json.Marshal(models.StepDefinitionCreated{EventID: "a", Name: "Packing"})
	r := &readerStub{msgs: []kafka.Message{
		{Value: valid, Headers: []kafka.Header{{Key: headerEventType, Value: []byte(EventTypeStepCreated)}}},
		{Value: []byte("{broken")},
		{Value: valid, Headers: []kafka.Header{{Key: headerEventType, Value: []byte("other")}}},
		{Value: valid},
	}}

	var handled []string
	err := consume(context.Background(), r, func(_ context.Context, ev models.StepDefinitionCreated) error {
		handled = append(handled, ev.EventID)
		if len(handled) == 1 {
			return errors.New("handler failure is logged, not fatal")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handled) != 2 || !r.closed {
		t.Fatalf("expected 2 handled events and closed reader, got %v closed=%v", handled, r.closed)
	}
}
