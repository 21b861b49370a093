package http

import (
	"github.com/Junni007/Devconnector/devconnector/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WithTelemetry starts a server span per request, continuing any trace
// propagated in the request headers.
func WithTelemetry(tp trace.TracerProvider) fiber.Handler {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	tracer := tp.Tracer("devconnector/http")

	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		ctx, span := tracer.Start(opentelemetry.ExtractHTTPContext(c), c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)

		err := c.Next()

		// Name after the matched route template, not the raw path.
		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", c.Response().StatusCode()),
		)

		if err != nil {
			opentelemetry.HandleSpanError(span, "request failed", err)
		}

		return err
	}
}
