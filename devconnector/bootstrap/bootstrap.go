package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/Junni007/Devconnector/devconnector"
	"github.com/Junni007/Devconnector/devconnector/config"
	"github.com/Junni007/Devconnector/devconnector/log"
	libMongo "github.com/Junni007/Devconnector/devconnector/mongo"
	libHTTP "github.com/Junni007/Devconnector/devconnector/net/http"
	"github.com/Junni007/Devconnector/devconnector/opentelemetry"
	"github.com/Junni007/Devconnector/devconnector/server"
	libZap "github.com/Junni007/Devconnector/devconnector/zap"
)

// Process exit codes returned by Run.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// LibraryName is the instrumentation scope used for logs, traces and metrics.
const LibraryName = "github.com/Junni007/Devconnector"

// Option customizes Run. The defaults read the process environment and bind
// the configured port.
type Option func(o *runOptions)

type runOptions struct {
	logger       log.Logger
	lookupEnv    func(string) (string, bool)
	listen       func(network, address string) (net.Listener, error)
	mongoOptions []libMongo.Option
	groups       []libHTTP.RouteGroup
}

// WithLogger replaces the zap logger built from configuration.
func WithLogger(logger log.Logger) Option {
	return func(o *runOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLookupEnv replaces the environment lookup used to resolve MONGO_URI.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(o *runOptions) {
		if fn != nil {
			o.lookupEnv = fn
		}
	}
}

// WithListenFunc replaces net.Listen for the HTTP listener.
func WithListenFunc(fn func(network, address string) (net.Listener, error)) Option {
	return func(o *runOptions) {
		if fn != nil {
			o.listen = fn
		}
	}
}

// WithMongoOptions forwards options to the connection manager.
func WithMongoOptions(opts ...libMongo.Option) Option {
	return func(o *runOptions) {
		o.mongoOptions = append(o.mongoOptions, opts...)
	}
}

// WithRouteGroups replaces the placeholder API route groups.
func WithRouteGroups(groups ...libHTTP.RouteGroup) Option {
	return func(o *runOptions) {
		o.groups = groups
	}
}

// Run boots the service and blocks until it shuts down. SIGINT, SIGTERM or
// cancelling ctx requests a graceful shutdown, including while the database
// connection is still being established.
//
// It returns ExitFailure when configuration is invalid, when the database
// connection cannot be established, when the port cannot be bound, or when
// any shutdown step fails. Otherwise it returns ExitOK.
func Run(ctx context.Context, opts ...Option) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	o := &runOptions{listen: net.Listen}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	devconnector.InitLocalEnvConfig()

	cfg, err := config.Load()
	if err != nil {
		logBootstrapError(o.logger, "invalid configuration", err)
		return ExitFailure
	}

	logger := o.logger
	if logger == nil {
		zl, err := libZap.New(libZap.Config{
			Environment:     loggerEnvironment(cfg.NodeEnv),
			Level:           cfg.LogLevel,
			OTelLibraryName: LibraryName,
		})
		if err != nil {
			logBootstrapError(nil, "failed to build logger", err)
			return ExitFailure
		}

		logger = zl
	}

	logger = logger.With(log.String("service", cfg.OTelServiceName), log.String("env", cfg.NodeEnv))

	telemetry, err := opentelemetry.NewTelemetry(opentelemetry.TelemetryConfig{
		LibraryName:               LibraryName,
		ServiceName:               cfg.OTelServiceName,
		ServiceVersion:            cfg.Version,
		DeploymentEnv:             cfg.NodeEnv,
		CollectorExporterEndpoint: cfg.OTelExporterEndpoint,
		EnableTelemetry:           cfg.OTelEnabled,
		Logger:                    logger,
	})
	if err != nil {
		logger.Log(ctx, log.LevelError, "failed to initialize telemetry", log.Err(err))
		_ = logger.Sync(ctx)

		return ExitFailure
	}

	telemetry.ApplyGlobals()

	// abort releases what was built so far on a startup failure.
	abort := func(msg string, err error, manager *libMongo.Manager) int {
		logger.Log(ctx, log.LevelError, msg, log.Err(err))

		if manager != nil {
			_ = manager.Close(context.WithoutCancel(ctx))
		}

		_ = telemetry.Shutdown(context.WithoutCancel(ctx))
		_ = logger.Sync(context.WithoutCancel(ctx))

		return ExitFailure
	}

	// stopped releases what was built when shutdown is requested before the
	// server starts. It succeeds when every release step succeeds.
	stopped := func(manager *libMongo.Manager) int {
		shutdownCtx := context.WithoutCancel(ctx)
		logger.Log(shutdownCtx, log.LevelInfo, "shutdown requested during startup")

		err := errors.Join(manager.Close(shutdownCtx), telemetry.Shutdown(shutdownCtx))
		if err != nil {
			logger.Log(shutdownCtx, log.LevelError, "shutdown completed with errors", log.Err(err))
		}

		_ = logger.Sync(shutdownCtx)

		if err != nil {
			return ExitFailure
		}

		return ExitOK
	}

	source, err := config.LoadFileSource(cfg.ConfigDir, cfg.FileEnvironment())
	if err != nil {
		return abort("failed to read configuration files", err, nil)
	}

	var resolverOpts []config.ResolverOption
	if o.lookupEnv != nil {
		resolverOpts = append(resolverOpts, config.WithLookupEnv(o.lookupEnv))
	}

	manager, err := libMongo.NewManager(libMongo.Config{
		Database:               cfg.MongoDatabase,
		AppName:                cfg.OTelServiceName,
		Development:            cfg.IsDevelopment(),
		ServerSelectionTimeout: cfg.MongoServerSelectionTimeout,
		SocketTimeout:          cfg.MongoSocketTimeout,
		ConnectTimeout:         cfg.MongoConnectTimeout,
		Logger:                 logger,
		TracerProvider:         telemetry.TracerProvider,
		MeterProvider:          telemetry.MeterProvider,
	}, config.NewResolver(source, logger, resolverOpts...), o.mongoOptions...)
	if err != nil {
		return abort("failed to create mongo manager", err, nil)
	}

	if err := manager.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return stopped(manager)
		}

		return abort("failed to connect to mongo", err, manager)
	}

	groups := o.groups
	if groups == nil {
		groups = libHTTP.DefaultRouteGroups()
	}

	app := libHTTP.NewApp(libHTTP.AppConfig{
		Name:           cfg.OTelServiceName,
		Version:        cfg.Version,
		Production:     cfg.IsProduction(),
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
		TracerProvider: telemetry.TracerProvider,
	}, manager, groups)

	ln, err := o.listen("tcp", cfg.Address())
	if err != nil {
		return abort("failed to bind http listener", err, manager)
	}

	sm := server.NewServerManager(logger).
		WithHTTPServer(app, cfg.Address()).
		WithListener(ln).
		WithShutdownChannel(ctx.Done()).
		WithShutdownTimeout(cfg.ShutdownTimeout)

	if err := sm.RegisterShutdownHook("mongo", manager.Close); err != nil {
		return abort("failed to register shutdown hook", err, manager)
	}

	if err := sm.RegisterShutdownHook("telemetry", telemetry.Shutdown); err != nil {
		return abort("failed to register shutdown hook", err, manager)
	}

	logger.Log(ctx, log.LevelInfo, "server listening", log.String("address", ln.Addr().String()))

	if err := sm.StartWithGracefulShutdownWithError(); err != nil {
		logger.Log(context.WithoutCancel(ctx), log.LevelError, "shutdown completed with errors", log.Err(err))
		_ = logger.Sync(context.WithoutCancel(ctx))

		return ExitFailure
	}

	return ExitOK
}

// loggerEnvironment maps NODE_ENV onto a logger profile. Unset and
// unrecognized values get the production profile.
func loggerEnvironment(nodeEnv string) libZap.Environment {
	switch env := libZap.Environment(nodeEnv); env {
	case libZap.EnvironmentDevelopment, libZap.EnvironmentLocal, libZap.EnvironmentTest, libZap.EnvironmentStaging:
		return env
	default:
		return libZap.EnvironmentProduction
	}
}

// logBootstrapError reports failures that happen before the configured
// logger exists.
func logBootstrapError(logger log.Logger, msg string, err error) {
	if logger == nil {
		zl, zerr := libZap.New(libZap.Config{Environment: libZap.EnvironmentProduction})
		if zerr != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
			return
		}

		logger = zl
	}

	logger.Log(context.Background(), log.LevelError, msg, log.Err(err))
	_ = logger.Sync(context.Background())
}
