package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestOrderDetailsWithStatus_Steps(t *testing.T) {
	raw := `{
		"id": 7,
		"orderId": 3,
		"item": {"id": 11, "name": "T-shirt"},
		"itemAmount": 2,
		"product_type": "print",
		"currentStepIndex": 1,
		"differentSteps": [
			{"id": 1, "name": "Received", "image": "a.png"},
			{"id": 2, "name": "Printing", "image": "b.png", "description": "on press"},
			{"id": 3, "name": "Shipped", "image": "c.png"}
		],
		"updated": {"1": "2024-03-01T10:15:00", "2": "2024-03-02T08:00:00.5"}
	}`

	var d OrderDetailsWithStatus
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	first := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	second := time.Date(2024, 3, 2, 8, 0, 0, 500000000, time.UTC)
	want := []StepProgress{
		{Index: 0, Step: d.DifferentSteps[0], State: StepDone, UpdatedAt: &first},
		{Index: 1, Step: d.DifferentSteps[1], State: StepCurrent, UpdatedAt: &second},
		{Index: 2, Step: d.DifferentSteps[2], State: StepPending},
	}
	if diff := cmp.Diff(want, d.Steps()); diff != "" {
		t.Fatalf("steps mismatch (-want +got):\n%s", diff)
	}
	if d.IsComplete() {
		t.Fatalf("expected item in progress")
	}
	if got := d.Percent(); got != 66 {
		t.Fatalf("expected 66%%, got %d", got)
	}
	step, ok := d.CurrentStep()
	if !ok || step.Name != "Printing" {
		t.Fatalf("unexpected current step: %+v %v", step, ok)
	}
}

func TestOrderDetailsWithStatus_IsComplete(t *testing.T) {
	steps := []StatusDefinition{{ID: 1}, {ID: 2}}
	tests := []struct {
		name  string
		index int
		steps []StatusDefinition
		want  bool
	}{
		{name: "last step", index: 1, steps: steps, want: true},
		{name: "first step", index: 0, steps: steps, want: false},
		{name: "out of range", index: 5, steps: steps, want: false},
		{name: "no steps", index: 0, steps: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := OrderDetailsWithStatus{CurrentStepIndex: tt.index, DifferentSteps: tt.steps}
			if got := d.IsComplete(); got != tt.want {
				t.Fatalf("IsComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalTime_JSON(t *testing.T) {
	var s OrderSummary
	if err := json.Unmarshal([]byte(`{"orderId":1,"orderCreated":"2024-05-06T07:08:09","priority":true}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(s.OrderCreated)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-05-06T07:08:09"` {
		t.Fatalf("unexpected round trip: %s", out)
	}

	var bad LocalTime
	if err := json.Unmarshal([]byte(`"06.05.2024"`), &bad); err == nil {
		t.Fatalf("expected error for malformed time")
	}
}
