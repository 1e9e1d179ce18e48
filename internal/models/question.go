package models

import "time"

// Question is a single question/answer pair belonging to exactly one session.
type Question struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session"`
	Position  int       `json:"-"` // Order within the session at creation
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Note      string    `json:"note"`
	IsPinned  bool      `json:"isPinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
