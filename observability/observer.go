// Package observability carries hub and transport events to logs. Level
// values follow the OpenTelemetry SeverityNumber ranges so events map onto
// slog and zap levels without translation tables.
package observability

import (
	"context"
	"log/slog"
	"time"
)

// Level is event severity in OTel SeverityNumber units.
type Level int

const (
	LevelVerbose Level = 5  // OTel DEBUG (5-8)
	LevelInfo    Level = 9  // OTel INFO (9-12)
	LevelWarning Level = 13 // OTel WARN (13-16)
	LevelError   Level = 17 // OTel ERROR (17-20)
)

func (l Level) String() string {
	switch {
	case l <= 4:
		return "TRACE"
	case l <= 8:
		return "DEBUG"
	case l <= 12:
		return "INFO"
	case l <= 16:
		return "WARN"
	case l <= 20:
		return "ERROR"
	default:
		return "FATAL"
	}
}

func (l Level) SlogLevel() slog.Level {
	switch {
	case l <= 8:
		return slog.LevelDebug
	case l <= 12:
		return slog.LevelInfo
	case l <= 16:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// EventType names an event. Each emitting package declares its own constants
// ("hub.message.send", "transport.stream.open").
type EventType string

// Event describes something that happened inside a component. Data holds
// telemetry such as ids and counts, never message content.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// Observer receives events. Implementations must not block the emitter and
// must be safe for concurrent use.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}
