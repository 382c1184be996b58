package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserLoggedIn      EventType = "user_logged_in"
	EventUserRegistered    EventType = "user_registered"
	EventUserLoggedOut     EventType = "user_logged_out"
	EventSessionRestored   EventType = "session_restored"
	EventSessionExpired    EventType = "session_expired"
	EventCredentialRenewed EventType = "credential_renewed"
	EventProfileUpdated    EventType = "profile_updated"
	EventUserDeleted       EventType = "user_deleted"
)

// All lists every event type, for subscribers that audit the full stream.
func All() []EventType {
	return []EventType{
		EventUserLoggedIn,
		EventUserRegistered,
		EventUserLoggedOut,
		EventSessionRestored,
		EventSessionExpired,
		EventCredentialRenewed,
		EventProfileUpdated,
		EventUserDeleted,
	}
}

// Event represents a session lifecycle event emitted by the console.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// UserDeletedPayload payload.
type UserDeletedPayload struct {
	DeletedUserID string `json:"deleted_user_id"`
}

// ProfileUpdatedPayload payload.
type ProfileUpdatedPayload struct {
	Name string `json:"name"`
}

// SessionExpiredPayload payload.
type SessionExpiredPayload struct {
	Reason string `json:"reason"`
}
