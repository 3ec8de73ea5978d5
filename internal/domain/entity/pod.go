package entity

import "time"

// Member is an embedded record in a pod's membership list representing one
// user's role and permissions there.
type Member struct {
	UserID          string    `json:"user_id"`
	DisplayName     string    `json:"display_name"`
	Role            string    `json:"role"`
	PermissionSetID string    `json:"permission_set_id,omitempty"`
	PushToken       string    `json:"push_token,omitempty"`
	JoinedAt        time.Time `json:"joined_at"`
}

// Pod is the shared resource to which access is requested. The membership
// list and the proposal reference lists are shared mutable state; Version is
// bumped on every mutation and checked inside the transaction that performs it.
type Pod struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"access_code"`
	OwnerID    string    `json:"owner_id"`
	Version    int64     `json:"version"`
	Members    []Member  `json:"members"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsOwner scans the membership list for an entry whose id matches and whose
// role is OWNER. Returns false on no match, including the empty list.
func IsOwner(members []Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID && m.Role == RoleOwner {
			return true
		}
	}
	return false
}

// OwnerIDs returns the user ids of all members holding the OWNER role
func OwnerIDs(members []Member) []string {
	var ids []string
	for _, m := range members {
		if m.Role == RoleOwner {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

// OwnerPushTokens returns the non-empty push tokens of all OWNER members
func OwnerPushTokens(members []Member) []string {
	var tokens []string
	for _, m := range members {
		if m.Role == RoleOwner && m.PushToken != "" {
			tokens = append(tokens, m.PushToken)
		}
	}
	return tokens
}

// HasMember returns true if the user already appears in the membership list
func HasMember(members []Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}
