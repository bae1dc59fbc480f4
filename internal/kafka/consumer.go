package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	zlog "github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// Handler обрабатывает одно событие о шаге.
type Handler func(ctx context.Context, ev models.StepDefinitionCreated) error

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// RunConsumer читает события из топика, пока не отменен ctx.
func RunConsumer(ctx context.Context, cfg config.KafkaConfig, groupID string, handle Handler) error {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: groupID,
	})
	return consume(ctx, r, handle)
}

func consume(ctx context.Context, r messageReader, handle Handler) error {
	defer func() {
		if err := r.Close(); err != nil {
			zlog.Warn().Err(err).Msg("kafka reader close error")
		}
	}()

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		if t := headerValue(m, headerEventType); t != "" && t != EventTypeStepCreated {
			zlog.Debug().Str("event_type", t).Msg("skipping unknown event")
			continue
		}

		var ev models.StepDefinitionCreated
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			zlog.Warn().Err(err).Int64("offset", m.Offset).Msg("invalid message")
			continue
		}

		if err := handle(ctx, ev); err != nil {
			zlog.Error().Err(err).Str("event_id", ev.EventID).Msg("failed to handle step event")
			continue
		}
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
