// Package telemetry содержит инициализацию трассировки и метрик дашборда.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/RoGogDBD/gtryk-dashboard/internal/config"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type shutdownFunc func(context.Context) error

// Providers активные компоненты телеметрии. Нулевое значение ничего не делает.
type Providers struct {
	MetricsHandler http.Handler
	metricsPath    string
	shutdowns      []shutdownFunc
}

// Shutdown останавливает провайдеры в обратном порядке и собирает все ошибки.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var joined error
	for i := len(p.shutdowns) - 1; i >= 0; i-- {
		joined = errors.Join(joined, p.shutdowns[i](ctx))
	}
	return joined
}

// WrapHandler оборачивает роутер в otelhttp. Запросы к метрикам и healthz не трассируются.
func (p *Providers) WrapHandler(h http.Handler, serviceName string) http.Handler {
	skip := map[string]bool{"/healthz": true}
	if p != nil && p.metricsPath != "" {
		skip[p.metricsPath] = true
	}
	return otelhttp.NewHandler(h, serviceName,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !skip[r.URL.Path]
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Init включает трассировку (OTLP HTTP) и метрики (Prometheus) по конфигурации.
// Пропагатор W3C ставится всегда, чтобы исходящие запросы к бэкенду несли trace context.
func Init(ctx context.Context, cfg config.TelemetryConfig) (*Providers, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := &Providers{metricsPath: cfg.MetricsPath}
	if !cfg.TracesEnabled && !cfg.MetricsEnabled {
		return p, nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	if cfg.TracesEnabled {
		tp, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		otel.SetTracerProvider(tp)
		p.shutdowns = append(p.shutdowns, tp.Shutdown)
	}

	if cfg.MetricsEnabled {
		mp, handler, err := newMeterProvider(res)
		if err != nil {
			_ = p.Shutdown(ctx)
			return nil, err
		}
		otel.SetMeterProvider(mp)
		p.MetricsHandler = handler
		p.shutdowns = append(p.shutdowns, mp.Shutdown)
	}

	return p, nil
}

func newTracerProvider(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSampleRatio))),
	), nil
}

// newMeterProvider отдает метрики otel и рантайма Go через отдельный реестр Prometheus.
func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, http.Handler, error) {
	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	return mp, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
