package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoGogDBD/gtryk-dashboard/internal/app"
	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	_ "github.com/RoGogDBD/gtryk-dashboard/internal/docs"
	"github.com/RoGogDBD/gtryk-dashboard/internal/logging"
	"github.com/RoGogDBD/gtryk-dashboard/internal/telemetry"
	"github.com/go-chi/chi/v5"
	zlog "github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

const shutdownTimeout = 10 * time.Second

// @title Order tracking dashboard API
// @version 1.0
// @description Page data, order cache and step image uploads for the order-tracking dashboard.
// @BasePath /
func main() {
	if err := run(); err != nil {
		zlog.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	// Флаги
	flags, err := config.ParseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	cfg, usedDefaults, err := loadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	flags.Apply(cfg)

	logging.Setup(cfg.Log)
	if usedDefaults {
		zlog.Warn().Msg("config file not found, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			zlog.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	application, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer application.Close()
	if err := application.Init(); err != nil {
		return err
	}

	// Инициализация chi роутера и middlewares
	r := chi.NewRouter()
	config.SetupMiddlewares(r)

	// Инициализация обработчиков
	application.Handler().Register(r)
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir))))
	if providers.MetricsHandler != nil {
		r.Handle(cfg.Telemetry.MetricsPath, providers.MetricsHandler)
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Конфигурация и запуск сервера
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      providers.WrapHandler(r, cfg.Telemetry.ServiceName),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zlog.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadConfig читает файл из -config или CONFIG_PATH. Если файла нет, берутся значения по умолчанию.
func loadConfig(path string) (*config.Config, bool, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadConfigFile(path)
	} else {
		cfg, err = config.LoadConfig()
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), true, nil
	}
	return cfg, false, err
}
