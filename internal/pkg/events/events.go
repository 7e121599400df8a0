// Package events publishes payroll and ledger domain events.
package events

import "time"

type EventType string

const (
	BatchCreated   EventType = "payroll.batch_created"
	BatchProcessed EventType = "payroll.batch_processed"
	TopUp          EventType = "ledger.top_up"
)

type Event struct {
	Type       EventType `json:"type"`
	Key        string    `json:"key"` // partition key, the company ID
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType EventType, key string, payload any) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Payload: payload}
}

// Publisher never blocks the caller and never fails it; delivery problems
// are logged by the implementation.
type Publisher interface {
	Publish(event Event)
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(Event) {}
