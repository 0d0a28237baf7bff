// Package metrics exposes pipeline counters and latency histograms through OpenTelemetry + Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
)

// Stage names used as the `stage` attribute.
const (
	StageTranscribe   = "transcribe"
	StageRetranscribe = "retranscribe"
	StageLLM          = "llm"
	StageNER          = "ner"
	StageShell        = "shell"
	StageDeliver      = "deliver"
	StageUtterance    = "utterance"
)

// Pipeline holds the instruments. A nil *Pipeline is a valid no-op recorder.
type Pipeline struct {
	provider *sdkmetric.MeterProvider
	handler  http.Handler

	utterances metric.Int64Counter
	signals    metric.Int64Counter
	failures   metric.Int64Counter
	durations  metric.Float64Histogram
	inflight   metric.Int64UpDownCounter
}

// New builds a meter provider backed by a private Prometheus registry.
func New(serviceName string) (*Pipeline, error) {
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter("github.com/rbright/hark")

	p := &Pipeline{
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if p.utterances, err = meter.Int64Counter("hark.utterances",
		metric.WithDescription("Processed utterances by outcome")); err != nil {
		return nil, err
	}
	if p.signals, err = meter.Int64Counter("hark.signals.matched",
		metric.WithDescription("Matched signal commands")); err != nil {
		return nil, err
	}
	if p.failures, err = meter.Int64Counter("hark.stage.failures",
		metric.WithDescription("Degraded stage calls (timeouts, errors)")); err != nil {
		return nil, err
	}
	if p.durations, err = meter.Float64Histogram("hark.stage.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Stage latency")); err != nil {
		return nil, err
	}
	if p.inflight, err = meter.Int64UpDownCounter("hark.transcribe.inflight",
		metric.WithDescription("Transcription calls currently running")); err != nil {
		return nil, err
	}
	return p, nil
}

// Handler returns the Prometheus scrape handler.
func (p *Pipeline) Handler() http.Handler {
	if p == nil {
		return http.NotFoundHandler()
	}
	return p.handler
}

// Utterance counts one finished utterance.
func (p *Pipeline) Utterance(ctx context.Context, outcome string) {
	if p == nil {
		return
	}
	p.utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// SignalMatched counts one signal hit.
func (p *Pipeline) SignalMatched(ctx context.Context, name string) {
	if p == nil {
		return
	}
	p.signals.Add(ctx, 1, metric.WithAttributes(attribute.String("signal", name)))
}

// StageFailed counts a degraded stage call.
func (p *Pipeline) StageFailed(ctx context.Context, stage string) {
	if p == nil {
		return
	}
	p.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// StageDuration records stage latency since start.
func (p *Pipeline) StageDuration(ctx context.Context, stage string, start time.Time) {
	if p == nil {
		return
	}
	p.durations.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

// Inflight adjusts the running transcription gauge.
func (p *Pipeline) Inflight(ctx context.Context, delta int64) {
	if p == nil {
		return
	}
	p.inflight.Add(ctx, delta)
}

// Shutdown flushes and stops the meter provider.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (p *Pipeline) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if logger != nil {
		logger.Info("metrics listening", slog.String("addr", listener.Addr().String()))
	}
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
