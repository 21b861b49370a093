package mongo

import (
	"context"
	"time"

	"github.com/Junni007/Devconnector/devconnector/log"
)

// State is a point in the connection lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateError
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventType names a lifecycle notification.
type EventType string

const (
	EventConnecting   EventType = "connecting"
	EventConnected    EventType = "connected"
	EventError        EventType = "error"
	EventDisconnected EventType = "disconnected"
	EventReconnected  EventType = "reconnected"
	EventClosed       EventType = "closed"
)

// Event is delivered to observers after the state it reports has been entered.
type Event struct {
	Type  EventType
	State State
	Err   error
	At    time.Time
}

// Observer receives lifecycle events synchronously and in order.
// An Observer must not call Connect or Close on the Manager that notified it.
type Observer func(Event)

type subscription struct {
	id       uint64
	observer Observer
}

// loggingObserver writes one log line per lifecycle event.
func loggingObserver(logger log.Logger, database func() string) Observer {
	return func(ev Event) {
		ctx := context.Background()
		fields := []log.Field{
			log.String("event", string(ev.Type)),
			log.String("database", database()),
		}

		switch ev.Type {
		case EventConnecting:
			logger.Log(ctx, log.LevelInfo, "connecting to mongo", fields...)
		case EventConnected:
			logger.Log(ctx, log.LevelInfo, "mongo connected", fields...)
		case EventReconnected:
			logger.Log(ctx, log.LevelInfo, "mongo reconnected", fields...)
		case EventError:
			logger.Log(ctx, log.LevelError, "mongo connection error", append(fields, log.Err(ev.Err))...)
		case EventDisconnected:
			if ev.Err != nil {
				fields = append(fields, log.Err(ev.Err))
			}

			logger.Log(ctx, log.LevelWarn, "mongo disconnected", fields...)
		case EventClosed:
			logger.Log(ctx, log.LevelInfo, "mongo connection closed", fields...)
		}
	}
}
