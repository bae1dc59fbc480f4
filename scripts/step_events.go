package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/RoGogDBD/gtryk-dashboard/internal/kafka"
	"github.com/RoGogDBD/gtryk-dashboard/internal/logging"
	"github.com/RoGogDBD/gtryk-dashboard/internal/models"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	count := flag.Int("count", 1, "Number of test step events to send")
	watch := flag.Bool("watch", false, "Print step events from the topic instead of sending")
	group := flag.String("group", "step-events-watcher", "Consumer group for -watch")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log)
	if !cfg.Kafka.Enabled() {
		zlog.Fatal().Msg("Kafka brokers or topic not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watch {
		err := kafka.RunConsumer(ctx, cfg.Kafka, *group, func(_ context.Context, ev models.StepDefinitionCreated) error {
			zlog.Info().
				Str("event_id", ev.EventID).
				Str("name", ev.Name).
				Str("image", ev.Image).
				Int64("size_bytes", ev.SizeBytes).
				Time("created_at", ev.CreatedAt).
				Msg("step definition created")
			return nil
		})
		if err != nil {
			zlog.Fatal().Err(err).Msg("consumer stopped")
		}
		return
	}

	p := kafka.NewPublisher(cfg.Kafka)
	defer func() {
		if err := p.Close(); err != nil {
			zlog.Warn().Err(err).Msg("kafka writer close error")
		}
	}()

	for i := 0; i < *count; i++ {
		eventID := uuid.NewString()
		fileName := fmt.Sprintf("%d_test-step-%d.png", time.Now().UnixMilli(), i+1)
		ev := models.StepDefinitionCreated{
			EventID:     eventID,
			Name:        fmt.Sprintf("Test step %d", i+1),
			Description: "Sent by scripts/step_events.go",
			Image:       cfg.Uploads.PublicPrefix + "/" + fileName,
			FileName:    fileName,
			SizeBytes:   1024,
			CreatedAt:   time.Now().UTC(),
		}
		if err := p.PublishStepCreated(ctx, ev); err != nil {
			zlog.Fatal().Err(err).Msg("Failed to send message")
		}
		zlog.Info().Int("n", i+1).Str("event_id", eventID).Msg("Message sent successfully")
	}
}
