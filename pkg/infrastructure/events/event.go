package events

import (
	"time"

	"github.com/google/uuid"
)

type Event interface {
	ID() uuid.UUID
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore is an append-only audit log partitioned into streams, one per
// organization.
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

type BaseEvent struct {
	EventID      uuid.UUID   `json:"id"`
	EventType    string      `json:"type"`
	Stream       string      `json:"stream"`
	EventData    interface{} `json:"data"`
	EventTime    time.Time   `json:"time"`
	EventVersion int         `json:"version"`
}

func (e BaseEvent) ID() uuid.UUID {
	return e.EventID
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

func NewEvent(eventType, streamID string, data interface{}) Event {
	return BaseEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		Stream:       streamID,
		EventData:    data,
		EventTime:    time.Now().UTC(),
		EventVersion: 1,
	}
}
