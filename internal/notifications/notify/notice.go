package notify

import (
	"context"
	"time"
)

// Level is the severity of a user-facing notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notice is a transient, dismissible message for the admin.
type Notice struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink delivers notices. Delivery is fire-and-forget from the caller's point of view.
type Sink interface {
	Send(ctx context.Context, notice Notice) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func levelLabel(level Level) string {
	switch level {
	case LevelSuccess:
		return "Success"
	case LevelError:
		return "Error"
	case LevelInfo:
		return "Info"
	default:
		return string(level)
	}
}
