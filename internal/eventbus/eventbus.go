package eventbus

import (
	"encoding/json"
	"github.com/google/uuid"
	"sync"
	"time"
)

type (
	Bus interface {
		Subscribe(topic string) (chan Event, []Event)
		Unregister(topic string, ch chan Event)
		Broadcast(topic string, evType Type, message string)
		BroadcastWithData(topic string, evType Type, message string, data interface{})
	}

	Event struct {
		ID      uuid.UUID       `json:"id"`
		Type    Type            `json:"type"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data,omitempty"`
		Time    time.Time       `json:"time"`
	}

	Type string
)

const (
	Error    Type = "error"
	Info     Type = "info"
	Success  Type = "success"
	Complete Type = "complete"

	subscriberBuffer = 100
	historySize      = 50
)

type eventPublisher struct {
	events  map[string][]chan Event
	history map[string]*history
	lock    sync.Mutex
}

func New() Bus {
	return &eventPublisher{
		events:  make(map[string][]chan Event),
		history: make(map[string]*history),
	}
}

// Subscribe registers a channel and returns the events published on topic
// before it, oldest first. No event is both replayed and delivered.
func (e *eventPublisher) Subscribe(topic string) (chan Event, []Event) {
	e.lock.Lock()
	defer e.lock.Unlock()

	ch := make(chan Event, subscriberBuffer)
	e.events[topic] = append(e.events[topic], ch)

	var recent []Event
	if h, ok := e.history[topic]; ok {
		recent = h.values()
	}
	return ch, recent
}

func (e *eventPublisher) Unregister(topic string, ch chan Event) {
	e.lock.Lock()
	defer e.lock.Unlock()

	clients := e.events[topic]
	for i, next := range clients {
		if next == ch {
			e.events[topic] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.events[topic]) == 0 {
		delete(e.events, topic)
	}
}

func (e *eventPublisher) Broadcast(topic string, evType Type, message string) {
	e.publish(topic, Event{Type: evType, Message: message})
}

// BroadcastWithData attaches data encoded as JSON. Values that cannot be
// encoded are dropped from the event.
func (e *eventPublisher) BroadcastWithData(topic string, evType Type, message string, data interface{}) {
	ev := Event{Type: evType, Message: message}
	if raw, err := json.Marshal(data); err == nil {
		ev.Data = raw
	}
	e.publish(topic, ev)
}

// publish never blocks: a subscriber whose buffer is full misses the event.
func (e *eventPublisher) publish(topic string, ev Event) {
	ev.ID = uuid.New()
	ev.Time = time.Now()

	e.lock.Lock()
	defer e.lock.Unlock()

	h, ok := e.history[topic]
	if !ok {
		h = newHistory(historySize)
		e.history[topic] = h
	}
	h.add(ev)

	for _, ch := range e.events[topic] {
		select {
		case ch <- ev:
		default:
		}
	}
}
