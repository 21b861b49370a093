package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Junni007/Devconnector/devconnector/log"
	"github.com/gofiber/fiber/v2"
)

// ErrNoServersConfigured indicates no server was configured for the manager.
var ErrNoServersConfigured = errors.New("no servers configured: use WithHTTPServer()")

// ErrNilShutdownHook is returned by RegisterShutdownHook for a nil function.
var ErrNilShutdownHook = errors.New("shutdown hook cannot be nil")

const defaultShutdownTimeout = 10 * time.Second

// ShutdownHook releases one resource. It receives a context bounded by the
// manager's shutdown timeout.
type ShutdownHook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   ShutdownHook
}

// HookError reports which shutdown hook failed.
type HookError struct {
	Name string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("shutdown hook %q: %v", e.Name, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// ServerManager handles the graceful shutdown of the HTTP server and the
// resources registered with it.
type ServerManager struct {
	httpServer         *fiber.App
	httpAddress        string
	listener           net.Listener
	logger             log.Logger
	hooksMu            sync.Mutex
	hooks              []namedHook
	serversStarted     chan struct{}
	serversStartedOnce sync.Once
	shutdownChan       <-chan struct{}
	shutdownOnce       sync.Once
	shutdownErr        error
	shutdownTimeout    time.Duration
	signals            []os.Signal
	startupErrors      chan error
}

// NewServerManager creates a new instance of ServerManager.
// If logger is nil, a no-op logger is used.
func NewServerManager(logger log.Logger) *ServerManager {
	if logger == nil {
		logger = log.NewNop()
	}

	return &ServerManager{
		logger:          logger,
		serversStarted:  make(chan struct{}),
		shutdownTimeout: defaultShutdownTimeout,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		startupErrors:   make(chan error, 1),
	}
}

// WithHTTPServer configures the HTTP server for the ServerManager.
func (sm *ServerManager) WithHTTPServer(app *fiber.App, address string) *ServerManager {
	sm.httpServer = app
	sm.httpAddress = address

	return sm
}

// WithListener serves the HTTP app on an already bound listener instead of
// listening on the configured address.
func (sm *ServerManager) WithListener(ln net.Listener) *ServerManager {
	sm.listener = ln

	return sm
}

// WithShutdownChannel configures a custom shutdown channel for the ServerManager.
// This allows tests to trigger shutdown deterministically instead of relying on OS signals.
func (sm *ServerManager) WithShutdownChannel(ch <-chan struct{}) *ServerManager {
	sm.shutdownChan = ch

	return sm
}

// WithShutdownTimeout bounds the HTTP shutdown and each shutdown hook. Defaults to 10 seconds.
func (sm *ServerManager) WithShutdownTimeout(d time.Duration) *ServerManager {
	if d > 0 {
		sm.shutdownTimeout = d
	}

	return sm
}

// RegisterShutdownHook appends a hook. Hooks run in registration order after
// the HTTP server has stopped accepting requests.
func (sm *ServerManager) RegisterShutdownHook(name string, fn ShutdownHook) error {
	if fn == nil {
		return ErrNilShutdownHook
	}

	sm.hooksMu.Lock()
	defer sm.hooksMu.Unlock()

	sm.hooks = append(sm.hooks, namedHook{name: name, fn: fn})

	return nil
}

// ServersStarted returns a channel that is closed when server goroutines have been launched.
// Note: This signals that goroutines were spawned, not that sockets are bound and ready to accept connections.
func (sm *ServerManager) ServersStarted() <-chan struct{} {
	return sm.serversStarted
}

// StartWithGracefulShutdownWithError starts the HTTP server and blocks until
// a termination signal, the shutdown channel closing, or a listener failure.
// It then runs the shutdown sequence and returns the listener error joined
// with every failed shutdown step.
func (sm *ServerManager) StartWithGracefulShutdownWithError() error {
	if sm.httpServer == nil {
		return ErrNoServersConfigured
	}

	// Subscribe before launching so a signal sent once ServersStarted is
	// closed is always observed.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, sm.signals...)

	defer signal.Stop(sig)

	sm.startServers()

	startupErr := sm.waitForShutdown(sig)

	return errors.Join(startupErr, sm.executeShutdown())
}

func (sm *ServerManager) startServers() {
	go func() {
		var err error

		if sm.listener != nil {
			sm.logInfof("Starting HTTP server on %s", sm.listener.Addr())
			err = sm.httpServer.Listener(sm.listener)
		} else {
			sm.logInfof("Starting HTTP server on %s", sm.httpAddress)
			err = sm.httpServer.Listen(sm.httpAddress)
		}

		if err != nil {
			sm.logErrorf("HTTP server error: %v", err)

			select {
			case sm.startupErrors <- fmt.Errorf("HTTP server: %w", err):
			default:
			}
		}
	}()

	sm.serversStartedOnce.Do(func() {
		close(sm.serversStarted)
	})
}

// waitForShutdown blocks until shutdown is requested and returns the
// listener error when that was the cause.
func (sm *ServerManager) waitForShutdown(sig <-chan os.Signal) error {
	var err error

	select {
	case s := <-sig:
		sm.logInfof("Received %s", s)
	case <-sm.shutdownChan:
	case err = <-sm.startupErrors:
		sm.logErrorf("Server startup failed: %v", err)
	}

	sm.logInfo("Gracefully shutting down all servers...")

	return err
}

// executeShutdown stops the HTTP server, runs hooks in order and syncs the logger.
// Only the first call does any work; later calls return the same result.
func (sm *ServerManager) executeShutdown() error {
	sm.shutdownOnce.Do(func() {
		var errs []error

		if sm.httpServer != nil {
			sm.logInfo("Shutting down HTTP server...")

			if err := sm.httpServer.ShutdownWithTimeout(sm.shutdownTimeout); err != nil {
				sm.logErrorf("Error during HTTP server shutdown: %v", err)
				errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
			}
		}

		sm.hooksMu.Lock()
		hooks := append([]namedHook(nil), sm.hooks...)
		sm.hooksMu.Unlock()

		for _, hook := range hooks {
			if err := sm.runHook(hook); err != nil {
				errs = append(errs, err)
			}
		}

		sm.logInfo("Syncing logger...")

		if err := sm.logger.Sync(context.Background()); err != nil {
			sm.logErrorf("Failed to sync logger: %v", err)
		}

		if len(errs) > 0 {
			sm.logErrorf("Graceful shutdown completed with %d error(s)", len(errs))
		} else {
			sm.logInfo("Graceful shutdown completed")
		}

		sm.shutdownErr = errors.Join(errs...)
	})

	return sm.shutdownErr
}

func (sm *ServerManager) runHook(hook namedHook) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Name: hook.name, Err: fmt.Errorf("panic: %v", r)}
			sm.logErrorf("Shutdown hook %s panicked: %v", hook.name, r)
		}
	}()

	sm.logInfof("Running shutdown hook %s...", hook.name)

	if hookErr := hook.fn(ctx); hookErr != nil {
		sm.logErrorf("Shutdown hook %s failed: %v", hook.name, hookErr)

		return &HookError{Name: hook.name, Err: hookErr}
	}

	return nil
}

func (sm *ServerManager) logInfo(msg string) {
	sm.logger.Log(context.Background(), log.LevelInfo, msg)
}

func (sm *ServerManager) logInfof(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelInfo, fmt.Sprintf(format, args...))
}

func (sm *ServerManager) logErrorf(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelError, fmt.Sprintf(format, args...))
}
