package models

import "time"

// Event represents a loggable action performed on a user's data.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Type      string    `json:"type"`  // e.g., "session.create", "question.pin"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	SessionID *string   `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
