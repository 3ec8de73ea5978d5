package port

import (
	"context"
	"errors"
	"time"

	"github.com/podhive/access-engine/internal/domain/entity"
)

// ErrVersionMismatch is returned by pod mutations when the aggregate version
// changed since it was read. The surrounding transaction must abort.
var ErrVersionMismatch = errors.New("pod version mismatch")

// ProposalRepository defines persistence operations for Proposal records.
// Proposals are never physically deleted; lookups return (nil, nil) on no row.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal) error
	GetByID(ctx context.Context, id string) (*entity.Proposal, error)

	// FindLatestByRequesterAndPod returns the most recent request-type
	// proposal for the (requester, pod) natural key
	FindLatestByRequesterAndPod(ctx context.Context, requesterID, podID string) (*entity.Proposal, error)

	// FindPendingInvitation returns the pending invitation addressed to the
	// given contact address for the pod, if any
	FindPendingInvitation(ctx context.Context, inviteeEmail, podID string) (*entity.Proposal, error)

	// UpdateTerms mutates the negotiable fields of a pending proposal in place
	UpdateTerms(ctx context.Context, id, role string, periodMs int64, checkIn time.Time) error

	UpdateStatus(ctx context.Context, id, status string) error

	ListByUserKind(ctx context.Context, userID, kind string) ([]*entity.Proposal, error)
	ListPendingByPod(ctx context.Context, podID string) ([]*entity.Proposal, error)
}

// PodRepository defines persistence operations for the pod aggregate,
// including its embedded membership list and proposal reference lists.
// Mutations take the version observed at read time and fail with
// ErrVersionMismatch when it is stale.
type PodRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Pod, error)
	GetByAccessCode(ctx context.Context, accessCode string) (*entity.Pod, error)
	AddProposalRef(ctx context.Context, podID, proposalID, kind string, expectedVersion int64) error
	AddMember(ctx context.Context, podID string, member entity.Member, expectedVersion int64) error
}

// UserRepository defines persistence operations for the requester aggregate
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	AddProposalRef(ctx context.Context, userID, proposalID, kind string) error
	AddPodRef(ctx context.Context, userID, podID string) error
	PushTokens(ctx context.Context, userIDs []string) ([]string, error)
}

// PermissionSetRepository is the consumed permission-set contract: lookup by
// id only, used at acceptance time to validate the chosen set exists
type PermissionSetRepository interface {
	GetByID(ctx context.Context, id string) (*entity.PermissionSet, error)
}

// NotificationRepository defines persistence operations for inbox records
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
