package entity

import "time"

// Notification is an inbox record appended to a user's notification list
// after a proposal transition commits.
type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	ProposalID string    `json:"proposal_id,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// PushMessage is the payload handed to the push transport: delivered
// best-effort to a list of device addresses.
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Type  string            `json:"type"`
	Data  map[string]string `json:"data,omitempty"`
}
