package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tripflow/console/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionRestored  EventType = "session_restored"
	EventSessionDiscarded EventType = "session_discarded"
	EventSignedIn         EventType = "signed_in"
	EventSignInFailed     EventType = "sign_in_failed"
	EventSignedOut        EventType = "signed_out"
)

// Event represents a session transition of one console client.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ClientID  string      `json:"client_id"`
	Role      domain.Role `json:"role,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(eventType EventType, clientID string, role domain.Role, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ClientID:  clientID,
		Role:      role,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SessionDiscardedPayload explains why a stored token was dropped on restore.
type SessionDiscardedPayload struct {
	Reason string `json:"reason"`
}

// SignInFailedPayload describes a rejected sign-in.
type SignInFailedPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
