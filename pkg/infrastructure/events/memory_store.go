package events

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/vsinha/zevledger/pkg/infrastructure/logging"
)

// InMemoryEventStore keeps events in process. Subscribers are notified
// synchronously, in subscription order, after the event is stored.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
	allEvents   []Event
	logger      *logging.Logger
}

func NewInMemoryEventStore(logger *logging.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
		allEvents:   make([]Event, 0),
		logger:      logger,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	stored := BaseEvent{
		EventID:      event.ID(),
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}
	s.streams[streamID] = append(s.streams[streamID], stored)
	s.allEvents = append(s.allEvents, stored)
	handlers := append([]EventHandler(nil), s.subscribers[stored.EventType]...)
	s.mutex.Unlock()

	s.notify(handlers, stored)
	return nil
}

func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events, exists := s.streams[streamID]
	if !exists {
		return []Event{}, nil
	}

	if fromVersion < 1 {
		fromVersion = 1
	}

	if fromVersion > len(events) {
		return []Event{}, nil
	}

	return append([]Event(nil), events[fromVersion-1:]...), nil
}

func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if fromPosition < 0 {
		fromPosition = 0
	}

	if fromPosition >= len(s.allEvents) {
		return []Event{}, nil
	}

	return append([]Event(nil), s.allEvents[fromPosition:]...), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}

	return nil
}

// Unsubscribe removes handler from every event type. Handlers are matched by
// value, so only comparable handler types (pointers, most structs) can be
// unsubscribed; func-backed handlers stay subscribed for the store's life.
func (s *InMemoryEventStore) Unsubscribe(handler EventHandler) error {
	if handler == nil || !reflect.TypeOf(handler).Comparable() {
		return fmt.Errorf("cannot unsubscribe handler of type %T", handler)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for eventType, handlers := range s.subscribers {
		kept := make([]EventHandler, 0, len(handlers))
		for _, h := range handlers {
			if !reflect.TypeOf(h).Comparable() || h != handler {
				kept = append(kept, h)
			}
		}
		s.subscribers[eventType] = kept
	}

	return nil
}

// A failing handler is logged and never fails the append.
func (s *InMemoryEventStore) notify(handlers []EventHandler, event Event) {
	for _, handler := range handlers {
		if !handler.CanHandle(event.Type()) {
			continue
		}
		if err := handler.Handle(event); err != nil {
			s.logger.Warn("event handler failed",
				"event_type", event.Type(),
				"event_id", event.ID().String(),
				"error", err)
		}
	}
}
