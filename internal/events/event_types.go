package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserUpdated    EventType = "user_updated"
	EventUserDeleted    EventType = "user_deleted"
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventRecipeCreated  EventType = "recipe_created"
	EventRecipeUpdated  EventType = "recipe_updated"
	EventRecipeDeleted  EventType = "recipe_deleted"
)

// AllEventTypes lists every type services publish.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserUpdated,
	EventUserDeleted,
	EventLoginSucceeded,
	EventLoginFailed,
	EventRecipeCreated,
	EventRecipeUpdated,
	EventRecipeDeleted,
}

// Event represents a domain event emitted by services. Subject is the
// username of the acting account, or the attempted username for logins.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	Subject    string      `json:"subject"`
	ResourceID int64       `json:"resource_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload,omitempty"`
}

// NewEvent stamps a fresh id and the current time.
func NewEvent(eventType EventType, subject string, resourceID int64, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Subject:    subject,
		ResourceID: resourceID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// LoginFailedPayload payload.
type LoginFailedPayload struct {
	Reason string `json:"reason"`
}

// RecipeChangedPayload payload.
type RecipeChangedPayload struct {
	OwnerID int64  `json:"owner_id"`
	Title   string `json:"title"`
}

// UserChangedPayload payload.
type UserChangedPayload struct {
	Email string `json:"email,omitempty"`
}
