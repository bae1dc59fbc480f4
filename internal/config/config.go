// Package config содержит конфигурацию и загрузчик настроек.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config содержит конфигурацию приложения
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Cache     CacheConfig     `yaml:"cache"`
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	MaxUploadMB  int64         `yaml:"max_upload_mb"`
}

// BackendConfig содержит адрес API заказов и статусов.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout 0 означает отсутствие общего таймаута, запрос ограничен только контекстом.
	Timeout time.Duration `yaml:"timeout"`
}

// UploadsConfig содержит настройки хранения загруженных картинок шагов.
type UploadsConfig struct {
	Dir          string `yaml:"dir"`
	PublicPrefix string `yaml:"public_prefix"`
}

// CacheConfig содержит настройки кеша деталей заказов.
type CacheConfig struct {
	Driver    string      `yaml:"driver"`
	WarmLimit int         `yaml:"warm_limit"`
	Redis     RedisConfig `yaml:"redis"`
}

// RedisConfig используется при cache.driver = redis.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DatabaseConfig содержит настройки журнала загрузок в PostgreSQL.
type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

// KafkaConfig содержит настройки публикации событий о загрузках.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	MaxRetries    int           `yaml:"max_retries"`
	Backoff       time.Duration `yaml:"backoff"`
	BackoffCap    time.Duration `yaml:"backoff_cap"`
	BackoffJitter bool          `yaml:"backoff_jitter"`
}

// TelemetryConfig содержит настройки трассировки и метрик.
type TelemetryConfig struct {
	ServiceName      string  `yaml:"service_name"`
	Environment      string  `yaml:"environment"`
	OTLPEndpoint     string  `yaml:"otlp_endpoint"`
	OTLPInsecure     bool    `yaml:"otlp_insecure"`
	TracesEnabled    bool    `yaml:"traces_enabled"`
	MetricsEnabled   bool    `yaml:"metrics_enabled"`
	TraceSampleRatio float64 `yaml:"trace_sample_ratio"`
	MetricsPath      string  `yaml:"metrics_path"`
}

// LogConfig содержит настройки логгера.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig загружает конфигурацию из файла
func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadConfigFile(path)
}

// LoadConfigFile загружает конфигурацию по указанному пути.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	normalizeConfig(&cfg)
	return &cfg, nil
}

// Default возвращает конфигурацию по умолчанию, когда файла нет.
func Default() *Config {
	cfg := defaultConfig()
	normalizeConfig(&cfg)
	return &cfg
}

// Address возвращает адрес сервера в формате host:port
func (s *ServerConfig) Address() string {
	if s.Host == "" {
		return fmt.Sprintf(":%d", s.Port)
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisEnabled сообщает, что кеш заказов хранится в Redis.
func (c *CacheConfig) RedisEnabled() bool {
	return c.Driver == "redis"
}

// Enabled сообщает, что публикация событий настроена.
func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:         "",
			Port:         5173,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxUploadMB:  10,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:8080",
		},
		Uploads: UploadsConfig{
			Dir:          "./static/uploads",
			PublicPrefix: "frontend/static/uploads",
		},
		Cache: CacheConfig{
			Driver:    "memory",
			WarmLimit: 4,
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "orders:",
			},
		},
		Database: DatabaseConfig{
			DSN:            "",
			MigrationsPath: "file://./migrations",
		},
		Kafka: KafkaConfig{
			Brokers:       nil,
			Topic:         "step-definitions",
			MaxRetries:    3,
			Backoff:       500 * time.Millisecond,
			BackoffCap:    5 * time.Second,
			BackoffJitter: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName:      "gtryk-dashboard",
			Environment:      "local",
			OTLPEndpoint:     "localhost:4318",
			OTLPInsecure:     true,
			TracesEnabled:    false,
			MetricsEnabled:   true,
			TraceSampleRatio: 1.0,
			MetricsPath:      "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func normalizeConfig(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5173
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 10
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8080"
	}
	if cfg.Backend.Timeout < 0 {
		cfg.Backend.Timeout = 0
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "./static/uploads"
	}
	cfg.Uploads.PublicPrefix = strings.TrimRight(cfg.Uploads.PublicPrefix, "/")
	if cfg.Uploads.PublicPrefix == "" {
		cfg.Uploads.PublicPrefix = "frontend/static/uploads"
	}
	cfg.Cache.Driver = strings.ToLower(strings.TrimSpace(cfg.Cache.Driver))
	if cfg.Cache.Driver != "redis" {
		cfg.Cache.Driver = "memory"
	}
	if cfg.Cache.WarmLimit <= 0 {
		cfg.Cache.WarmLimit = 4
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = "orders:"
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "file://./migrations"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "step-definitions"
	}
	if cfg.Kafka.MaxRetries < 0 {
		cfg.Kafka.MaxRetries = 0
	}
	if cfg.Kafka.Backoff < 0 {
		cfg.Kafka.Backoff = 0
	}
	if cfg.Kafka.BackoffCap < 0 {
		cfg.Kafka.BackoffCap = 0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "gtryk-dashboard"
	}
	if cfg.Telemetry.OTLPEndpoint == "" {
		cfg.Telemetry.OTLPEndpoint = "localhost:4318"
	}
	if cfg.Telemetry.TraceSampleRatio <= 0 || cfg.Telemetry.TraceSampleRatio > 1 {
		cfg.Telemetry.TraceSampleRatio = 1.0
	}
	if cfg.Telemetry.MetricsPath == "" {
		cfg.Telemetry.MetricsPath = "/metrics"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}
