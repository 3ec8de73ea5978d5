package workflow

import (
	"context"
	"time"

	"github.com/podhive/access-engine/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// RequestAccessInput carries the payload of a prospective member's request.
// Either PodID or AccessCode identifies the target pod.
type RequestAccessInput struct {
	PodID           string
	AccessCode      string
	Role            string
	PeriodMs        int64
	CheckIn         time.Time
	PermissionSetID string
}

// RegisterInput carries the new-user fields of the combined signup+request flow
type RegisterInput struct {
	Name      string
	Email     string
	Phone     string
	Password  string
	PushToken string
}

// InvitationInput carries the payload of an owner's invitation
type InvitationInput struct {
	PodID           string
	InviteeEmail    string
	Role            string
	PeriodMs        int64
	CheckIn         time.Time
	PermissionSetID string
}

// AcceptInput carries the owner's chosen role and permission set when
// accepting a request. Empty fields fall back to the proposal's own values.
type AcceptInput struct {
	Role            string
	PermissionSetID string
}

// Engine orchestrates the access/invitation workflow. Every mutation
// validates actor authorization and state legality, performs the
// multi-aggregate write as one atomic unit, publishes notification events
// only after commit, and returns the updated proposal rendered for display.
type Engine interface {
	// RequestAccess creates a membership request, or resolves it against an
	// existing proposal for the same (requester, pod) pair
	RequestAccess(ctx context.Context, actorID string, in RequestAccessInput) (*entity.ProposalView, error)

	// RegisterAndRequestAccess creates the user and the request in one
	// encompassing transaction. A failed pod lookup aborts the user write too.
	RegisterAndRequestAccess(ctx context.Context, reg RegisterInput, in RequestAccessInput) (*entity.ProposalView, error)

	// SendInvitation creates an invitation from a pod owner to a user
	// resolved by contact address
	SendInvitation(ctx context.Context, actorID string, in InvitationInput) (*entity.ProposalView, error)

	// CancelRequest cancels a pending request; only the original requester may
	CancelRequest(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error)

	// RejectRequest rejects a pending request; only a pod owner may
	RejectRequest(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error)

	// AcceptRequest accepts a pending request, appending the membership entry
	// and the requester's pod reference atomically; only a pod owner may
	AcceptRequest(ctx context.Context, actorID, proposalID string, in AcceptInput) (*entity.ProposalView, error)

	// CancelInvitation cancels a pending invitation; only a pod owner may
	CancelInvitation(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error)

	// RejectInvitation rejects a pending invitation; only the invitee may
	RejectInvitation(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error)

	// AcceptInvitation accepts a pending invitation; only the invitee may
	AcceptInvitation(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error)

	// GetProposal returns one proposal; the actor must be a party to it or a
	// pod owner
	GetProposal(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error)

	// ListUserProposals returns the actor's sent requests and received
	// invitations
	ListUserProposals(ctx context.Context, actorID string) (requests, invitations []*entity.ProposalView, err error)

	// ListPodProposals returns a pod's pending proposals; only a pod owner may
	ListPodProposals(ctx context.Context, actorID, podID string) ([]*entity.ProposalView, error)
}
