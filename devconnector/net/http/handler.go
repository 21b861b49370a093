package http

import (
	"context"
	"errors"
	"time"

	"github.com/Junni007/Devconnector/devconnector"
	"github.com/Junni007/Devconnector/devconnector/log"
	libMongo "github.com/Junni007/Devconnector/devconnector/mongo"
	libOpentelemetry "github.com/Junni007/Devconnector/devconnector/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

// readyPingTimeout bounds the database probe made by the readiness endpoint.
const readyPingTimeout = 2 * time.Second

// Health reports process liveness. It never touches the database.
func Health(c *fiber.Ctx) error {
	return Respond(c, fiber.StatusOK, fiber.Map{"status": "available"})
}

// Version returns the running build version.
func Version(version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return Respond(c, fiber.StatusOK, fiber.Map{
			"version":     version,
			"requestDate": time.Now().UTC(),
		})
	}
}

// Ready answers 200 only while the database connection is established and
// answering pings, 503 otherwise.
func Ready(db DatabaseHandle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := db.State()

		if state != libMongo.StateConnected {
			return Respond(c, fiber.StatusServiceUnavailable, fiber.Map{
				"status": "unavailable",
				"mongo":  state.String(),
			})
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), readyPingTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			devconnector.NewLoggerFromContext(c.UserContext()).
				Log(ctx, log.LevelWarn, "readiness ping failed", log.Err(err))

			return Respond(c, fiber.StatusServiceUnavailable, fiber.Map{
				"status": "unavailable",
				"mongo":  state.String(),
			})
		}

		return Respond(c, fiber.StatusOK, fiber.Map{
			"status": "ready",
			"mongo":  state.String(),
		})
	}
}

// FiberErrorHandler is the application error handler. Unexpected errors are
// logged with the request-scoped logger and rendered as a generic 500.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()

	libOpentelemetry.HandleSpanError(trace.SpanFromContext(ctx), "handler error", err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return RenderError(c, err)
	}

	devconnector.NewLoggerFromContext(ctx).Log(ctx, log.LevelError,
		"handler error",
		log.String("method", c.Method()),
		log.String("path", c.Path()),
		log.Err(err),
	)

	return RenderError(c, err)
}
