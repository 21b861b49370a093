package http

import (
	"context"
	"path/filepath"

	constant "github.com/Junni007/Devconnector/devconnector/constants"
	"github.com/Junni007/Devconnector/devconnector/log"
	libMongo "github.com/Junni007/Devconnector/devconnector/mongo"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/trace"
)

// DatabaseHandle is the view of the connection manager the HTTP layer needs.
type DatabaseHandle interface {
	State() libMongo.State
	Database() (*mongo.Database, error)
	Ping(ctx context.Context) error
}

// RouteGroup mounts one API area under Prefix.
type RouteGroup struct {
	Prefix   string
	Register func(router fiber.Router, db DatabaseHandle)
}

// NotImplementedGroup answers 501 for every method and path under prefix.
func NotImplementedGroup(prefix string) RouteGroup {
	return RouteGroup{
		Prefix: prefix,
		Register: func(router fiber.Router, _ DatabaseHandle) {
			router.All("/", NotImplementedEndpoint)
			router.All("/*", NotImplementedEndpoint)
		},
	}
}

// DefaultRouteGroups returns the users, auth, profile and posts groups with
// placeholder handlers.
func DefaultRouteGroups() []RouteGroup {
	return []RouteGroup{
		NotImplementedGroup(constant.RouteUsers),
		NotImplementedGroup(constant.RouteAuth),
		NotImplementedGroup(constant.RouteProfile),
		NotImplementedGroup(constant.RoutePosts),
	}
}

// AppConfig configures NewApp.
type AppConfig struct {
	Name           string
	Version        string
	Production     bool
	StaticDir      string
	AllowedOrigins []string
	Logger         log.Logger
	TracerProvider trace.TracerProvider
}

// NewApp builds the Fiber application. db must already be connected for /api
// requests to pass the readiness gate.
func NewApp(cfg AppConfig, db DatabaseHandle, groups []RouteGroup) *fiber.App {
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.Name,
		DisableStartupMessage: true,
		ErrorHandler:          FiberErrorHandler,
	})

	// The outer recover covers the middleware below it; the inner one turns
	// handler panics into errors the access log can report.
	app.Use(recover.New())
	app.Use(WithRequestID())
	app.Use(WithTelemetry(cfg.TracerProvider))
	app.Use(WithHTTPLogging(cfg.Logger))
	app.Use(recover.New())

	if cors := WithCORS(cfg.AllowedOrigins); cors != nil {
		app.Use(cors)
	}

	app.Get("/health", Health)
	app.Get("/ready", Ready(db))
	app.Get("/version", Version(cfg.Version))

	app.Use("/api", readinessGate(db))

	for _, group := range groups {
		if group.Register == nil {
			continue
		}

		group.Register(app.Group(group.Prefix), db)
	}

	if cfg.Production {
		serveClient(app, cfg.StaticDir)
	}

	return app
}

// readinessGate rejects API traffic with 503 while the database connection
// is not established.
func readinessGate(db DatabaseHandle) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db.State() != libMongo.StateConnected {
			return ServiceUnavailableError(c)
		}

		return c.Next()
	}
}

// serveClient serves the built client bundle and falls back to index.html
// for any other GET so client-side routing works on reload.
func serveClient(app *fiber.App, dir string) {
	app.Static("/", dir)

	index := filepath.Join(dir, "index.html")

	app.Get("*", func(c *fiber.Ctx) error {
		return c.SendFile(index)
	})
}
