package app

import (
	"context"
	"fmt"

	"github.com/RoGogDBD/gtryk-dashboard/internal/backend"
	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	"github.com/RoGogDBD/gtryk-dashboard/internal/config/db"
	"github.com/RoGogDBD/gtryk-dashboard/internal/handlers"
	"github.com/RoGogDBD/gtryk-dashboard/internal/kafka"
	"github.com/RoGogDBD/gtryk-dashboard/internal/loaders"
	"github.com/RoGogDBD/gtryk-dashboard/internal/orderstore"
	"github.com/RoGogDBD/gtryk-dashboard/internal/repository"
	"github.com/RoGogDBD/gtryk-dashboard/internal/upload"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

// App содержит все зависимости приложения
type App struct {
	Config    *config.Config
	Backend   *backend.Client
	Redis     *redis.Client
	DBPool    *pgxpool.Pool
	Ledger    repository.UploadStore
	Publisher *kafka.Publisher
	Orders    *orderstore.Store
	Uploads   *upload.Service
	Pages     *loaders.Loader
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp создает новое приложение.
func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:  cfg,
		Backend: backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout),
		ctx:     ctx,
		cancel:  cancel,
	}

	return app, nil
}

// Init выполняет инициализацию зависимостей приложения. Недоступные Redis,
// PostgreSQL и Kafka не мешают запуску: сервис работает без них.
func (a *App) Init() error {
	entries := a.initCache(a.ctx)
	a.Orders = orderstore.New(a.Backend, entries)
	a.Pages = loaders.New(a.Backend, a.Orders, a.Config.Cache.WarmLimit)

	// Инициализация БД
	if err := a.initDatabase(a.ctx); err != nil {
		zlog.Warn().Err(err).Msg("cannot connect to DB, running without upload ledger")
	}

	var opts []upload.Option
	if a.Ledger != nil {
		opts = append(opts, upload.WithLedger(a.Ledger))
	}
	if a.Config.Kafka.Enabled() {
		a.Publisher = kafka.NewPublisher(a.Config.Kafka)
		opts = append(opts, upload.WithPublisher(a.Publisher))
		zlog.Info().Strs("brokers", a.Config.Kafka.Brokers).Str("topic", a.Config.Kafka.Topic).Msg("Kafka publisher enabled")
	}
	a.Uploads = upload.NewService(a.Backend, a.Config.Uploads.Dir, a.Config.Uploads.PublicPrefix, opts...)

	return nil
}

// initCache выбирает хранилище кеша. При недоступном Redis используется память.
func (a *App) initCache(ctx context.Context) repository.EntryStore {
	if !a.Config.Cache.RedisEnabled() {
		zlog.Info().Msg("Initialized in-memory order cache")
		return repository.NewMemStorage()
	}

	rc := a.Config.Cache.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		zlog.Warn().Err(err).Str("addr", rc.Addr).Msg("redis unavailable, falling back to in-memory order cache")
		client.Close()
		return repository.NewMemStorage()
	}

	a.Redis = client
	zlog.Info().Str("addr", rc.Addr).Str("prefix", rc.KeyPrefix).Msg("Initialized redis order cache")
	return repository.NewRedisStorage(client, rc.KeyPrefix)
}

// initDatabase инициализирует подключение к базе данных
func (a *App) initDatabase(ctx context.Context) error {
	if a.Config.Database.DSN == "" {
		zlog.Info().Msg("No DSN provided, running without database")
		return nil
	}

	dbPool, err := db.NewPool(ctx, a.Config.Database.DSN, a.Config.Database.MigrationsPath)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	a.DBPool = dbPool
	a.Ledger = repository.NewPostgresStorage(dbPool)
	zlog.Info().Msg("Database initialized successfully")

	return nil
}

// Handler собирает HTTP-обработчики поверх зависимостей приложения.
func (a *App) Handler() *handlers.Handler {
	return handlers.NewHandler(a.Pages, a.Orders, a.Uploads, a.Ledger, a.Config.Server.MaxUploadMB<<20)
}

// Close освобождает все ресурсы приложения
func (a *App) Close() {
	zlog.Info().Msg("Shutting down application...")

	if a.cancel != nil {
		a.cancel()
	}

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			zlog.Warn().Err(err).Msg("kafka publisher close failed")
		}
	}

	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			zlog.Warn().Err(err).Msg("redis close failed")
		}
	}

	// Закрываем подключение к БД
	if a.DBPool != nil {
		a.DBPool.Close()
		zlog.Info().Msg("Database connection closed")
	}

	zlog.Info().Msg("Application shutdown complete")
}

// Context возвращает контекст приложения
func (a *App) Context() context.Context {
	return a.ctx
}
