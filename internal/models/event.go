package models

import "time"

// StepDefinitionCreated событие о новом шаге, созданном через загрузку картинки.
type StepDefinitionCreated struct {
	EventID     string    `json:"event_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	FileName    string    `json:"file_name"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}
