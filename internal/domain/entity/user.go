package entity

import "time"

// User is the requester-side aggregate. Proposal references and pod
// memberships are stored alongside the user and updated transactionally with
// the proposal itself.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	PushToken    string    `json:"push_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProposalRef links a user to a proposal they sent or received
type ProposalRef struct {
	UserID     string    `json:"user_id"`
	ProposalID string    `json:"proposal_id"`
	Kind       string    `json:"kind"` // REQUEST or INVITATION
	CreatedAt  time.Time `json:"created_at"`
}

// PermissionSet is a consumed contract: looked up by id at acceptance time
// only, to validate the chosen set exists. CRUD lives elsewhere.
type PermissionSet struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
