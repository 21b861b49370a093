package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	constant "github.com/Junni007/Devconnector/devconnector/constants"
	"github.com/Junni007/Devconnector/devconnector/log"
	libOpentelemetry "github.com/Junni007/Devconnector/devconnector/opentelemetry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "devconnector/mongo"

// URIResolver produces the connection string. It is consulted once per Connect.
type URIResolver interface {
	Resolve() (string, error)
}

// Config defines how the Manager dials and reports.
type Config struct {
	// Database overrides the database named in the connection string.
	Database               string
	AppName                string
	Development            bool
	ServerSelectionTimeout time.Duration
	SocketTimeout          time.Duration
	ConnectTimeout         time.Duration
	Logger                 log.Logger
	TracerProvider         trace.TracerProvider
	MeterProvider          metric.MeterProvider
}

func normalizeConfig(cfg Config) Config {
	cfg.Database = strings.TrimSpace(cfg.Database)

	if cfg.ServerSelectionTimeout <= 0 {
		cfg.ServerSelectionTimeout = constant.DefaultServerSelectionTimeout
	}

	if cfg.SocketTimeout <= 0 {
		cfg.SocketTimeout = constant.DefaultSocketTimeout
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = constant.DefaultConnectTimeout
	}

	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}

	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	return cfg
}

// Option customizes internal manager dependencies (primarily for tests).
type Option func(*managerDeps)

type managerDeps struct {
	connect    func(context.Context, *options.ClientOptions) (*mongo.Client, error)
	ping       func(context.Context, *mongo.Client) error
	disconnect func(context.Context, *mongo.Client) error
	now        func() time.Time
}

func defaultDeps() managerDeps {
	return managerDeps{
		connect: func(ctx context.Context, clientOptions *options.ClientOptions) (*mongo.Client, error) {
			return mongo.Connect(ctx, clientOptions)
		},
		ping: func(ctx context.Context, client *mongo.Client) error {
			return client.Ping(ctx, nil)
		},
		disconnect: func(ctx context.Context, client *mongo.Client) error {
			return client.Disconnect(ctx)
		},
		now: time.Now,
	}
}

// WithConnectFunc replaces mongo.Connect.
func WithConnectFunc(fn func(context.Context, *options.ClientOptions) (*mongo.Client, error)) Option {
	return func(d *managerDeps) { d.connect = fn }
}

// WithPingFunc replaces the post-connect and readiness ping.
func WithPingFunc(fn func(context.Context, *mongo.Client) error) Option {
	return func(d *managerDeps) { d.ping = fn }
}

// WithDisconnectFunc replaces (*mongo.Client).Disconnect.
func WithDisconnectFunc(fn func(context.Context, *mongo.Client) error) Option {
	return func(d *managerDeps) { d.disconnect = fn }
}

// WithClock sets the time source used to stamp events.
func WithClock(fn func() time.Time) Option {
	return func(d *managerDeps) { d.now = fn }
}

// connectionFailuresMetric counts failed resolve, connect, ping and close operations.
const connectionFailuresMetric = "mongo_connection_failures_total"

// Manager owns the single MongoDB connection of the process.
type Manager struct {
	cfg      Config
	resolver URIResolver
	deps     managerDeps
	logger   log.Logger
	tracer   trace.Tracer
	failures metric.Int64Counter

	// emitMu serializes transitions so observers see events in state order.
	emitMu sync.Mutex

	mu        sync.RWMutex
	state     State
	inFlight  bool
	closing   bool
	client    *mongo.Client
	database  string
	failure   error
	subs      []subscription
	nextSubID uint64

	verbose atomic.Bool
}

// NewManager returns an Idle manager with a logging observer already subscribed.
func NewManager(cfg Config, resolver URIResolver, opts ...Option) (*Manager, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}

	cfg = normalizeConfig(cfg)

	deps := defaultDeps()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		opt(&deps)
	}

	if deps.connect == nil || deps.ping == nil || deps.disconnect == nil || deps.now == nil {
		return nil, ErrNilDependency
	}

	m := &Manager{
		cfg:      cfg,
		resolver: resolver,
		deps:     deps,
		logger:   cfg.Logger,
		tracer:   cfg.TracerProvider.Tracer(instrumentationName),
		state:    StateIdle,
	}

	counter, err := cfg.MeterProvider.Meter(instrumentationName).Int64Counter(
		connectionFailuresMetric,
		metric.WithUnit("1"),
		metric.WithDescription("Total number of mongo connection failures"),
	)
	if err != nil {
		m.logger.Log(context.Background(), log.LevelWarn, "failed to create mongo metric counter", log.Err(err))

		counter = noop.Int64Counter{}
	}

	m.failures = counter

	m.Subscribe(loggingObserver(m.logger, m.DatabaseName))

	return m, nil
}

// Subscribe registers observer for every later lifecycle event and returns a
// function that removes it.
func (m *Manager) Subscribe(observer Observer) (unsubscribe func()) {
	if m == nil || observer == nil {
		return func() {}
	}

	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.subs = append(m.subs, subscription{id: id, observer: observer})
	m.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()

			for i, s := range m.subs {
				if s.id == id {
					m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	if m == nil {
		return StateIdle
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// VerboseLogging reports whether driver commands are currently logged at debug level.
func (m *Manager) VerboseLogging() bool {
	return m != nil && m.verbose.Load()
}

// Connect resolves the connection string, dials and pings. It is synchronous:
// on return the manager is Connected or the returned error says why not.
//
// A Connected manager returns nil. A manager whose first attempt failed returns
// ErrConnectFailed wrapping that failure; it never dials twice.
func (m *Manager) Connect(ctx context.Context) error {
	if m == nil {
		return ErrNilManager
	}

	if ctx == nil {
		ctx = context.Background()
	}

	proceed, err := m.claimConnect()
	if !proceed {
		return err
	}

	defer m.releaseConnect()

	ctx, span := m.tracer.Start(ctx, "mongo.connect")
	defer span.End()

	span.SetAttributes(attribute.String(constant.AttrDBSystem, constant.DBSystemMongoDB))

	uri, err := m.resolver.Resolve()
	if err != nil {
		m.fail(ctx, span, "resolve", err)

		return err
	}

	database := databaseName(m.cfg.Database, uri)
	span.SetAttributes(attribute.String(constant.AttrDBName, database))

	started := m.transition(StateConnecting, Event{Type: EventConnecting}, func() bool {
		if m.closing || m.state != StateIdle {
			return false
		}

		m.database = database

		return true
	})
	if !started {
		return ErrManagerClosed
	}

	client, err := m.dial(ctx, uri)
	if err != nil {
		var connErr *ConnectionError
		op := "connect"

		if errors.As(err, &connErr) {
			op = connErr.Op
		}

		m.fail(ctx, span, op, err)

		return err
	}

	connected := m.transition(StateConnected, Event{Type: EventConnected}, func() bool {
		if m.closing || m.state != StateConnecting {
			return false
		}

		m.client = client

		return true
	})
	if !connected {
		if err := m.deps.disconnect(ctx, client); err != nil {
			m.logger.Log(ctx, log.LevelWarn, "failed to disconnect mongo client opened during close", log.Err(err))
		}

		return ErrManagerClosed
	}

	libOpentelemetry.HandleSpanEvent(span, "mongo.connected", attribute.String(constant.AttrDBName, database))

	if m.cfg.Development {
		m.verbose.Store(true)
		m.logger.Log(ctx, log.LevelDebug, "verbose mongo command logging enabled")
	}

	return nil
}

func (m *Manager) claimConnect() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closing {
		return false, ErrManagerClosed
	}

	if m.inFlight {
		return false, ErrConnectInProgress
	}

	switch m.state {
	case StateConnected, StateDisconnected:
		return false, nil
	case StateConnecting:
		return false, ErrConnectInProgress
	case StateError:
		return false, fmt.Errorf("%w: %w", ErrConnectFailed, m.failure)
	case StateClosed:
		return false, ErrManagerClosed
	}

	m.inFlight = true

	return true, nil
}

func (m *Manager) releaseConnect() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}

func (m *Manager) dial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := m.deps.connect(ctx, m.clientOptions(uri))
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Err: fmt.Errorf("%w: %w", ErrConnect, err)}
	}

	if client == nil {
		return nil, &ConnectionError{Op: "connect", Err: ErrNilMongoClient}
	}

	if err := m.deps.ping(ctx, client); err != nil {
		if disconnectErr := m.deps.disconnect(ctx, client); disconnectErr != nil {
			m.logger.Log(ctx, log.LevelWarn, "failed to disconnect after ping failure", log.Err(disconnectErr))
		}

		return nil, &ConnectionError{Op: "ping", Err: fmt.Errorf("%w: %w", ErrPing, err)}
	}

	return client, nil
}

func (m *Manager) clientOptions(uri string) *options.ClientOptions {
	clientOptions := options.Client().ApplyURI(uri)

	clientOptions.SetServerSelectionTimeout(m.cfg.ServerSelectionTimeout)
	clientOptions.SetSocketTimeout(m.cfg.SocketTimeout)
	clientOptions.SetConnectTimeout(m.cfg.ConnectTimeout)
	clientOptions.SetDialer(newIPv4Dialer(m.cfg.ConnectTimeout))
	clientOptions.SetMonitor(m.commandMonitor())
	clientOptions.SetServerMonitor(m.serverMonitor())

	if m.cfg.AppName != "" {
		clientOptions.SetAppName(m.cfg.AppName)
	}

	return clientOptions
}

func (m *Manager) fail(ctx context.Context, span trace.Span, op string, err error) {
	m.transition(StateError, Event{Type: EventError, Err: err}, func() bool {
		if m.closing {
			return false
		}

		m.failure = err

		return true
	})

	m.recordConnectionFailure(ctx, op)

	libOpentelemetry.HandleSpanError(span, "Failed to connect to mongo", err)
}

// transition moves to state to and notifies observers. update runs under the
// state lock and may veto the move by returning false. Closed is terminal.
func (m *Manager) transition(to State, ev Event, update func() bool) bool {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()

	if m.state == StateClosed || (update != nil && !update()) {
		m.mu.Unlock()
		return false
	}

	m.state = to
	subs := append([]subscription(nil), m.subs...)
	m.mu.Unlock()

	ev.State = to
	ev.At = m.deps.now()

	for _, s := range subs {
		s.observer(ev)
	}

	return true
}

// Client returns the underlying driver client while the connection is open.
func (m *Manager) Client() (*mongo.Client, error) {
	if m == nil {
		return nil, ErrNilManager
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.client == nil || (m.state != StateConnected && m.state != StateDisconnected) {
		return nil, ErrNotConnected
	}

	return m.client, nil
}

// DatabaseName returns the database selected by Config or the connection string.
func (m *Manager) DatabaseName() string {
	if m == nil {
		return ""
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.database
}

// Database returns the handle route modules share.
func (m *Manager) Database() (*mongo.Database, error) {
	client, err := m.Client()
	if err != nil {
		return nil, err
	}

	return client.Database(m.DatabaseName()), nil
}

// Ping checks MongoDB availability using the open connection.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil {
		return ErrNilManager
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := m.tracer.Start(ctx, "mongo.ping")
	defer span.End()

	span.SetAttributes(attribute.String(constant.AttrDBSystem, constant.DBSystemMongoDB))

	client, err := m.Client()
	if err != nil {
		libOpentelemetry.HandleSpanError(span, "Failed to get mongo client for ping", err)

		return err
	}

	if err := m.deps.ping(ctx, client); err != nil {
		pingErr := fmt.Errorf("%w: %w", ErrPing, err)
		libOpentelemetry.HandleSpanError(span, "Mongo ping failed", pingErr)

		return pingErr
	}

	return nil
}

// Close releases the connection and marks the manager Closed whether or not
// the disconnect succeeds. An open connection produces a disconnected event
// followed by closed; a manager that never connected only emits closed.
// Calling Close again is a no-op.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil {
		return ErrNilManager
	}

	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()

	if m.closing || m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}

	m.closing = true
	client := m.client
	m.client = nil
	m.mu.Unlock()

	m.verbose.Store(false)

	ctx, span := m.tracer.Start(ctx, "mongo.close")
	defer span.End()

	span.SetAttributes(attribute.String(constant.AttrDBSystem, constant.DBSystemMongoDB))

	var closeErr error

	if client != nil {
		if err := m.deps.disconnect(ctx, client); err != nil {
			closeErr = &ShutdownError{Err: fmt.Errorf("%w: %w", ErrDisconnect, err)}

			m.recordConnectionFailure(ctx, "close")
			libOpentelemetry.HandleSpanError(span, "Failed to disconnect from mongo", closeErr)
		}

		m.transition(StateDisconnected, Event{Type: EventDisconnected, Err: closeErr}, nil)
	}

	m.transition(StateClosed, Event{Type: EventClosed, Err: closeErr}, nil)

	return closeErr
}

// recordConnectionFailure increments the mongo connection failure counter.
func (m *Manager) recordConnectionFailure(ctx context.Context, operation string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", constant.SanitizeMetricLabel(operation)),
	))
}
