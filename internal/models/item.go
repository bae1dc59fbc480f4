// Package models содержит view-модели дашборда заказов.
package models

// Item описывает товар внутри строки заказа.
type Item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StatusDefinition описывает один шаг производственного конвейера.
// Порядок шагов задается позицией в OrderDetailsWithStatus.DifferentSteps.
type StatusDefinition struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
}
