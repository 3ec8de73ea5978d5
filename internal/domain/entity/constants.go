package entity

// Role constants for pod membership and proposals
const (
	RoleGuest  = "GUEST"
	RoleMember = "MEMBER"
	RoleOwner  = "OWNER"
	RoleTenant = "TENANT"
	RoleAdmin  = "ADMIN"
	RoleDemo   = "DEMO"
)

var validRoles = map[string]bool{
	RoleGuest:  true,
	RoleMember: true,
	RoleOwner:  true,
	RoleTenant: true,
	RoleAdmin:  true,
	RoleDemo:   true,
}

// IsValidRole returns true if role is one of the defined access roles
func IsValidRole(role string) bool {
	return validRoles[role]
}

// Status constants for Proposal
const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
	StatusCanceled = "CANCELED"
)

// Proposal reference kinds on the user aggregate
const (
	RefKindRequest    = "REQUEST"    // outbound access request
	RefKindInvitation = "INVITATION" // inbound invitation
)

// Notification kinds for inbox records
const (
	NotificationKindRequested = "ACCESS_REQUESTED"
	NotificationKindInvited   = "ACCESS_INVITED"
	NotificationKindUpdated   = "ACCESS_UPDATED"
	NotificationKindAccepted  = "ACCESS_ACCEPTED"
	NotificationKindRejected  = "ACCESS_REJECTED"
	NotificationKindCanceled  = "ACCESS_CANCELED"
)
