// Package kafka публикует и читает события о новых шагах конвейера.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/RoGogDBD/gtryk-dashboard/internal/retry"
	zlog "github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// EventTypeStepCreated значение заголовка event-type.
const EventTypeStepCreated = "step-definition.created"

const headerEventType = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher пишет события в топик с повторами.
type Publisher struct {
	writer messageWriter
	policy retry.Policy
}

// NewPublisher создает Publisher по конфигурации Kafka.
func NewPublisher(cfg config.KafkaConfig) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPublisher(w, Policy(cfg))
}

func newPublisher(w messageWriter, policy retry.Policy) *Publisher {
	return &Publisher{writer: w, policy: policy}
}

// Policy строит политику повторов из настроек Kafka.
func Policy(cfg config.KafkaConfig) retry.Policy {
	return retry.Policy{
		MaxRetries:  cfg.MaxRetries,
		Backoff:     retry.NewBackoff(cfg.Backoff, cfg.BackoffCap, cfg.BackoffJitter),
		ShouldRetry: isTemporary,
	}
}

// PublishStepCreated публикует событие, ключ сообщения - EventID.
func (p *Publisher) PublishStepCreated(ctx context.Context, ev models.StepDefinitionCreated) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.EventID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(EventTypeStepCreated)},
		},
	}

	err = retry.Do(ctx, p.policy, func(ctx context.Context) error {
		return p.writer.WriteMessages(ctx, msg)
	}, func(err error, attempt int, wait time.Duration) {
		zlog.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Str("event_id", ev.EventID).Msg("kafka publish failed, retrying")
	})
	if err != nil {
		return fmt.Errorf("publish step event %s: %w", ev.EventID, err)
	}
	return nil
}

// Close закрывает writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func isTemporary(err error) bool {
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
