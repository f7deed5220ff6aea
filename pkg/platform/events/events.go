// Package events carries the notification contract between the trust core and
// its read-side collaborators (caches, downstream fan-out). The original
// design used a process-wide reactive store; here every state change is an
// explicit message on a bus that caches and the visibility layer subscribe to.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types emitted by the core.
const (
	TypeScoreApplied  = "trust.score_applied"
	TypeUserBlocked   = "user.blocked"
	TypeUserUnblocked = "user.unblocked"
)

// Event is the wire shape for core notifications. Key groups events of one
// subject so consumers observe them in order.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Publisher is the outbound port for core notifications.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NewEvent marshals a payload into an Event. Marshal failures are programmer
// errors on our own types, surfaced to the caller rather than swallowed.
func NewEvent(eventType, key string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Nop discards all events; used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close()                               {}
