// Package logging настраивает глобальный zerolog-логгер.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Setup устанавливает уровень и формат глобального логгера.
func Setup(cfg config.LogConfig) {
	zlog.Logger = New(cfg, os.Stderr)
}

// New собирает логгер поверх w. Формат console дает человекочитаемый вывод.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := w
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
