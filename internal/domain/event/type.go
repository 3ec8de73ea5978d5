package event

// Type identifies the type of domain event
type Type string

const (
	TypeProposalRequested Type = "proposal.requested"
	TypeProposalInvited   Type = "proposal.invited"
	TypeProposalUpdated   Type = "proposal.updated"
	TypeProposalAccepted  Type = "proposal.accepted"
	TypeProposalRejected  Type = "proposal.rejected"
	TypeProposalCanceled  Type = "proposal.canceled"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeProposalRequested,
		TypeProposalInvited,
		TypeProposalUpdated,
		TypeProposalAccepted,
		TypeProposalRejected,
		TypeProposalCanceled:
		return true
	default:
		return false
	}
}
