package models

import "time"

// Upload запись журнала загруженных картинок шагов.
type Upload struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	ImagePath   string    `json:"imagePath"`
	StepName    string    `json:"stepName"`
	Description string    `json:"description"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}
