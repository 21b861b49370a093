package mongo

import (
	"context"
	"net"
	"time"

	"github.com/Junni007/Devconnector/devconnector/log"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/description"
)

// ipv4Dialer pins TCP dials to IPv4 so hosts such as "localhost" do not stall
// on an unreachable IPv6 address first.
type ipv4Dialer struct {
	dialer net.Dialer
}

func newIPv4Dialer(timeout time.Duration) *ipv4Dialer {
	return &ipv4Dialer{dialer: net.Dialer{Timeout: timeout}}
}

func (d *ipv4Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	switch network {
	case "tcp", "tcp6":
		network = "tcp4"
	}

	return d.dialer.DialContext(ctx, network, address)
}

// commandMonitor logs every driver command at debug level once verbose logging
// has been switched on by a successful Connect in development.
func (m *Manager) commandMonitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			if !m.verboseEnabled() {
				return
			}

			m.logger.Log(ctx, log.LevelDebug, "mongo command started",
				log.String("command", evt.CommandName),
				log.String("database", evt.DatabaseName),
				log.Int("request_id", int(evt.RequestID)),
				log.String("query", evt.Command.String()),
			)
		},
		Succeeded: func(ctx context.Context, evt *event.CommandSucceededEvent) {
			if !m.verboseEnabled() {
				return
			}

			m.logger.Log(ctx, log.LevelDebug, "mongo command succeeded",
				log.String("command", evt.CommandName),
				log.Int("request_id", int(evt.RequestID)),
				log.Duration("duration", evt.Duration),
			)
		},
		Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
			if !m.verboseEnabled() {
				return
			}

			m.logger.Log(ctx, log.LevelDebug, "mongo command failed",
				log.String("command", evt.CommandName),
				log.Int("request_id", int(evt.RequestID)),
				log.Duration("duration", evt.Duration),
				log.Any("failure", evt.Failure),
			)
		},
	}
}

func (m *Manager) verboseEnabled() bool {
	return m.verbose.Load() && m.logger.Enabled(log.LevelDebug)
}

// serverMonitor turns driver topology changes into disconnected and
// reconnected events once the manager is Connected.
func (m *Manager) serverMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		TopologyDescriptionChanged: func(evt *event.TopologyDescriptionChangedEvent) {
			m.topologyChanged(hasAvailableServer(evt.NewDescription))
		},
	}
}

func (m *Manager) topologyChanged(available bool) {
	if available {
		m.transition(StateConnected, Event{Type: EventReconnected}, func() bool {
			return !m.closing && m.state == StateDisconnected
		})

		return
	}

	m.transition(StateDisconnected, Event{Type: EventDisconnected, Err: ErrNotConnected}, func() bool {
		return !m.closing && m.state == StateConnected
	})
}

func hasAvailableServer(topology description.Topology) bool {
	for _, server := range topology.Servers {
		if server.Kind != description.Unknown {
			return true
		}
	}

	return false
}
