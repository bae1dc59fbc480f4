package models

import "time"

// StepState состояние шага относительно текущего индекса.
type StepState string

const (
	StepDone    StepState = "done"
	StepCurrent StepState = "current"
	StepPending StepState = "pending"
)

// StepProgress шаг конвейера вместе с его состоянием для отображения.
type StepProgress struct {
	Index     int              `json:"index"`
	Step      StatusDefinition `json:"step"`
	State     StepState        `json:"state"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
}

// IsComplete true, если строка заказа находится на последнем шаге.
// Строка без шагов завершенной не считается.
func (d OrderDetailsWithStatus) IsComplete() bool {
	return d.CurrentStepIndex == len(d.DifferentSteps)-1
}

// CurrentStep возвращает определение текущего шага.
func (d OrderDetailsWithStatus) CurrentStep() (StatusDefinition, bool) {
	if d.CurrentStepIndex < 0 || d.CurrentStepIndex >= len(d.DifferentSteps) {
		return StatusDefinition{}, false
	}
	return d.DifferentSteps[d.CurrentStepIndex], true
}

// Percent доля пройденных шагов, 0..100.
func (d OrderDetailsWithStatus) Percent() int {
	total := len(d.DifferentSteps)
	if total == 0 {
		return 0
	}
	done := d.CurrentStepIndex + 1
	switch {
	case done < 0:
		done = 0
	case done > total:
		done = total
	}
	return done * 100 / total
}

// Steps раскладывает DifferentSteps в список с состояниями и отметками времени.
func (d OrderDetailsWithStatus) Steps() []StepProgress {
	steps := make([]StepProgress, 0, len(d.DifferentSteps))
	for i, def := range d.DifferentSteps {
		sp := StepProgress{Index: i, Step: def, State: StepPending}
		switch {
		case i < d.CurrentStepIndex:
			sp.State = StepDone
		case i == d.CurrentStepIndex:
			sp.State = StepCurrent
		}
		if ts, ok := d.Updated[def.ID]; ok && ts != nil && !ts.IsZero() {
			t := ts.Time
			sp.UpdatedAt = &t
		}
		steps = append(steps, sp)
	}
	return steps
}
