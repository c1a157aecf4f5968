package events

import (
	"context"
	"time"
)

const (
	TypeOrchestrationCompleted = "ORCHESTRATION_COMPLETED"
	TypeOrchestrationFailed    = "ORCHESTRATION_FAILED"
	TypeActionCompleted        = "ACTION_COMPLETED"
	TypeStageChanged           = "STAGE_CHANGED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ORCHESTRATION_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher is anything that can ship an Event somewhere else.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
