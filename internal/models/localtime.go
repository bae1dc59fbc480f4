package models

import (
	"bytes"
	"fmt"
	"time"
)

// LocalTimeLayout формат даты без часового пояса, который отдает бэкенд.
const LocalTimeLayout = "2006-01-02T15:04:05"

// LocalTime время без часового пояса (LocalDateTime бэкенда).
type LocalTime struct {
	time.Time
}

// ParseLocalTime разбирает строку вида 2024-03-01T10:15:00[.123456].
func ParseLocalTime(s string) (LocalTime, error) {
	t, err := time.Parse(LocalTimeLayout+".999999999", s)
	if err != nil {
		return LocalTime{}, fmt.Errorf("parse local time %q: %w", s, err)
	}
	return LocalTime{Time: t}, nil
}

func (t LocalTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(LocalTimeLayout + ".999999999")
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.String() + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = LocalTime{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("local time must be a JSON string, got %s", data)
	}
	parsed, err := ParseLocalTime(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
