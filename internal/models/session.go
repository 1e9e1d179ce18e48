package models

import "time"

// Session is one interview-prep record owned by a user.
type Session struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user"`
	Role          string     `json:"role"`
	Experience    string     `json:"experience"`
	TopicsToFocus string     `json:"topicsToFocus"`
	Description   string     `json:"description"`
	Questions     []Question `json:"questions"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// QuestionIDs returns the ids of the session's questions in their current order.
func (s Session) QuestionIDs() []string {
	ids := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		ids[i] = q.ID
	}
	return ids
}
