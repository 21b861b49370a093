package opentelemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	constant "github.com/Junni007/Devconnector/devconnector/constants"
	"github.com/Junni007/Devconnector/devconnector/log"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNilTelemetryLogger indicates that config.Logger is nil.
	ErrNilTelemetryLogger = errors.New("telemetry config logger cannot be nil")
	// ErrEmptyEndpoint indicates telemetry is enabled without a collector endpoint.
	ErrEmptyEndpoint = errors.New("telemetry collector endpoint cannot be empty")
	// ErrNilTelemetry is returned when a *Telemetry receiver is nil.
	ErrNilTelemetry = errors.New("telemetry is nil")
)

// TelemetryConfig configures NewTelemetry.
type TelemetryConfig struct {
	LibraryName               string
	ServiceName               string
	ServiceVersion            string
	DeploymentEnv             string
	CollectorExporterEndpoint string
	EnableTelemetry           bool
	Logger                    log.Logger
}

// Telemetry holds the providers built by NewTelemetry.
type Telemetry struct {
	TelemetryConfig
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Propagator     propagation.TextMapPropagator
	shutdown       func(context.Context) error
}

func (cfg TelemetryConfig) newResource() *sdkresource.Resource {
	return sdkresource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.DeploymentEnv),
		semconv.TelemetrySDKName(constant.TelemetrySDKName),
		semconv.TelemetrySDKLanguageGo,
	)
}

// NewTelemetry builds tracer, meter and logger providers. With EnableTelemetry
// unset the providers have no exporters. Globals are left untouched until ApplyGlobals.
func NewTelemetry(cfg TelemetryConfig) (*Telemetry, error) {
	if cfg.Logger == nil {
		return nil, ErrNilTelemetryLogger
	}

	propagator := propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

	if !cfg.EnableTelemetry {
		cfg.Logger.Log(context.Background(), log.LevelWarn, "telemetry turned off")

		mp := sdkmetric.NewMeterProvider()
		tp := sdktrace.NewTracerProvider()
		lp := sdklog.NewLoggerProvider()

		return &Telemetry{
			TelemetryConfig: cfg,
			TracerProvider:  tp,
			MeterProvider:   mp,
			LoggerProvider:  lp,
			Propagator:      propagator,
			shutdown: func(ctx context.Context) error {
				return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx), lp.Shutdown(ctx))
			},
		}, nil
	}

	endpoint := strings.TrimSpace(cfg.CollectorExporterEndpoint)
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	ctx := context.Background()
	l := cfg.Logger

	l.Log(ctx, log.LevelInfo, "initializing telemetry", log.String("endpoint", endpoint))

	tExp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(endpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("can't initialize tracer exporter: %w", err)
	}

	mExp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(endpoint), otlpmetricgrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("can't initialize metric exporter: %w", err)
	}

	lExp, err := otlploggrpc.New(ctx, otlploggrpc.WithEndpoint(endpoint), otlploggrpc.WithInsecure())
	if err != nil {
		return nil, fmt.Errorf("can't initialize logger exporter: %w", err)
	}

	r := cfg.newResource()

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(tExp),
		sdktrace.WithResource(r),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(r),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mExp)),
	)

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(r),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(lExp)),
	)

	// Providers flush and close their own exporters.
	shutdown := func(ctx context.Context) error {
		var errs []error

		if err := mp.Shutdown(ctx); err != nil {
			l.Log(ctx, log.LevelError, "can't shutdown metric provider", log.Err(err))
			errs = append(errs, err)
		}

		if err := tp.Shutdown(ctx); err != nil {
			l.Log(ctx, log.LevelError, "can't shutdown tracer provider", log.Err(err))
			errs = append(errs, err)
		}

		if err := lp.Shutdown(ctx); err != nil {
			l.Log(ctx, log.LevelError, "can't shutdown logger provider", log.Err(err))
			errs = append(errs, err)
		}

		return errors.Join(errs...)
	}

	l.Log(ctx, log.LevelInfo, "telemetry initialized")

	return &Telemetry{
		TelemetryConfig: cfg,
		TracerProvider:  tp,
		MeterProvider:   mp,
		LoggerProvider:  lp,
		Propagator:      propagator,
		shutdown:        shutdown,
	}, nil
}

// ApplyGlobals installs the providers and propagator as the otel globals.
func (tl *Telemetry) ApplyGlobals() {
	if tl == nil {
		return
	}

	if tl.TracerProvider != nil {
		otel.SetTracerProvider(tl.TracerProvider)
	}

	if tl.MeterProvider != nil {
		otel.SetMeterProvider(tl.MeterProvider)
	}

	if tl.LoggerProvider != nil {
		global.SetLoggerProvider(tl.LoggerProvider)
	}

	if tl.Propagator != nil {
		otel.SetTextMapPropagator(tl.Propagator)
	}
}

// Shutdown flushes and stops every provider.
func (tl *Telemetry) Shutdown(ctx context.Context) error {
	if tl == nil || tl.shutdown == nil {
		return ErrNilTelemetry
	}

	return tl.shutdown(ctx)
}

// HandleSpanEvent adds an event to the span.
func HandleSpanEvent(span trace.Span, eventName string, attributes ...attribute.KeyValue) {
	if span != nil {
		span.AddEvent(eventName, trace.WithAttributes(attributes...))
	}
}

// HandleSpanError sets the status of the span to error and records the error.
func HandleSpanError(span trace.Span, message string, err error) {
	if span != nil && err != nil {
		span.SetStatus(codes.Error, message+": "+err.Error())
		span.RecordError(err)
	}
}

// ExtractHTTPContext extracts the trace context carried by the request headers.
func ExtractHTTPContext(c *fiber.Ctx) context.Context {
	carrier := propagation.HeaderCarrier{}

	c.Request().Header.VisitAll(func(key, value []byte) {
		carrier.Set(string(key), string(value))
	})

	return otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)
}

// GetTraceIDFromContext returns the hex trace id of the active span, or "".
func GetTraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.HasTraceID() {
		return ""
	}

	return sc.TraceID().String()
}
