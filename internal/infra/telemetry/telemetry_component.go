// Package telemetry installs the OpenTelemetry tracer provider for the process.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/consts"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/core"
	"github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/logging"
)

type Component struct {
	*core.BaseComponent
	cfg           *Config
	exporter      sdktrace.SpanExporter
	tp            *sdktrace.TracerProvider
	prev          trace.TracerProvider
	shutdownFuncs []func(context.Context) error
	started       bool
}

func NewComponent(cfg *Config) *Component {
	return &Component{
		BaseComponent: core.NewBaseComponent(consts.COMPONENT_TELEMETRY, consts.COMPONENT_LOGGING),
		cfg:           cfg,
	}
}

// WithExporter replaces the configured exporter; tests pass an in-memory one.
func (tc *Component) WithExporter(exp sdktrace.SpanExporter) *Component {
	tc.exporter = exp
	return tc
}

func (tc *Component) Start(ctx context.Context) error {
	if err := tc.BaseComponent.Start(ctx); err != nil {
		return err
	}
	if tc.cfg == nil || !tc.cfg.Enabled {
		return errors.New("telemetry disabled or missing config")
	}
	tc.cfg.applyDefaults()
	if tc.cfg.ServiceName == "" {
		return errors.New("telemetry service_name must be set")
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithAttributes(semconv.ServiceName(tc.cfg.ServiceName)),
	)
	if errors.Is(err, resource.ErrPartialResource) {
		logging.Warnf(ctx, "telemetry resource partially detected: %v", err)
	} else if err != nil {
		return fmt.Errorf("resource init: %w", err)
	}

	exp := tc.exporter
	if exp == nil {
		if exp, err = tc.newExporter(ctx); err != nil {
			return err
		}
	}
	tc.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tc.cfg.SampleRatio))),
		sdktrace.WithResource(res),
	)
	tc.shutdownFuncs = append(tc.shutdownFuncs, func(c context.Context) error {
		c2, cancel := context.WithTimeout(c, 5*time.Second)
		defer cancel()
		return tc.tp.Shutdown(c2)
	})

	tc.prev = otel.GetTracerProvider()
	otel.SetTracerProvider(tc.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tc.started = true
	logging.Info(ctx, "telemetry component started",
		zap.String("exporter", string(tc.cfg.Exporter)),
		zap.Float64("sample_ratio", tc.cfg.SampleRatio),
		zap.String("service_name", tc.cfg.ServiceName),
	)
	return nil
}

func (tc *Component) newExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	switch tc.cfg.Exporter {
	case ExporterStdout:
		writer, err := tc.stdoutWriter()
		if err != nil {
			return nil, err
		}
		opts := []stdouttrace.Option{stdouttrace.WithWriter(writer)}
		if tc.cfg.StdoutPretty {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		return stdouttrace.New(opts...)
	case ExporterOTLP:
		if tc.cfg.OTLP == nil || tc.cfg.OTLP.Endpoint == "" {
			return nil, errors.New("otlp exporter selected but otlp.endpoint empty")
		}
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(tc.cfg.OTLP.Endpoint),
			otlptracegrpc.WithTimeout(tc.cfg.OTLP.Timeout),
		}
		if tc.cfg.OTLP.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithBlock()))
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("trace exporter init: %w", err)
		}
		return exp, nil
	}
	return nil, fmt.Errorf("unsupported exporter: %s", tc.cfg.Exporter)
}

func (tc *Component) stdoutWriter() (io.Writer, error) {
	if tc.cfg.StdoutFile == "" {
		return os.Stdout, nil
	}
	f, err := os.OpenFile(tc.cfg.StdoutFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry stdout file: %w", err)
	}
	tc.shutdownFuncs = append(tc.shutdownFuncs, func(context.Context) error { return f.Close() })
	return f, nil
}

func (tc *Component) Stop(ctx context.Context) error {
	defer tc.BaseComponent.Stop(ctx)
	if !tc.started {
		return nil
	}
	var errs []error
	for i := len(tc.shutdownFuncs) - 1; i >= 0; i-- {
		if err := tc.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
			logging.Warn(ctx, "telemetry shutdown func error", zap.Error(err))
		}
	}
	tc.shutdownFuncs = nil
	if tc.prev != nil {
		otel.SetTracerProvider(tc.prev)
	}
	tc.started = false
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	logging.Info(ctx, "telemetry stopped gracefully")
	return nil
}

// ForceFlush exports buffered spans without stopping the provider.
func (tc *Component) ForceFlush(ctx context.Context) error {
	if tc.tp == nil {
		return nil
	}
	return tc.tp.ForceFlush(ctx)
}

func (tc *Component) HealthCheck() error {
	if err := tc.BaseComponent.HealthCheck(); err != nil {
		return err
	}
	if tc.tp == nil {
		return errors.New("telemetry provider not initialized")
	}
	return nil
}
