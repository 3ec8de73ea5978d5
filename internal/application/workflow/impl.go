package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/podhive/access-engine/internal/apperr"
	"github.com/podhive/access-engine/internal/application/dispatcher"
	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/domain/event"
	domainwf "github.com/podhive/access-engine/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	proposals  port.ProposalRepository
	pods       port.PodRepository
	users      port.UserRepository
	permSets   port.PermissionSetRepository
	txManager  port.TransactionManager
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for post-commit fan-out
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithLogger sets a logger
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	proposals port.ProposalRepository,
	pods port.PodRepository,
	users port.UserRepository,
	permSets port.PermissionSetRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		proposals: proposals,
		pods:      pods,
		users:     users,
		permSets:  permSets,
		txManager: txManager,
		logger:    nopLogger{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// RequestAccess creates a membership request, or resolves it against an
// existing proposal for the same (requester, pod) pair
func (e *engineImpl) RequestAccess(ctx context.Context, actorID string, in RequestAccessInput) (*entity.ProposalView, error) {
	if err := validateTerms(in.Role, in.PeriodMs); err != nil {
		return nil, err
	}

	requester, err := e.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	pod, err := e.loadPodByRef(ctx, in.PodID, in.AccessCode)
	if err != nil {
		return nil, err
	}

	if entity.HasMember(pod.Members, actorID) {
		return nil, apperr.Conflict("user %s is already a member of pod %s", actorID, pod.ID)
	}

	existing, err := e.proposals.FindLatestByRequesterAndPod(ctx, actorID, pod.ID)
	if err != nil {
		return nil, apperr.Transaction("find existing request", err)
	}
	if existing != nil {
		return e.resolveDuplicateRequest(ctx, existing, pod, in)
	}

	proposal := e.buildProposal(requester, pod, in.Role, in.PeriodMs, in.CheckIn, in.PermissionSetID, false, actorID, pod.ID)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.proposals.Create(txCtx, proposal); err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		if err := e.users.AddProposalRef(txCtx, actorID, proposal.ID, entity.RefKindRequest); err != nil {
			return fmt.Errorf("add user ref: %w", err)
		}
		if err := e.pods.AddProposalRef(txCtx, pod.ID, proposal.ID, entity.RefKindRequest, pod.Version); err != nil {
			return fmt.Errorf("add pod ref: %w", err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Request access write failed", "error", err, "pod_id", pod.ID, "user_id", actorID)
		return nil, wrapWriteErr("request access", err)
	}

	e.logger.Info("Access request created", "proposal_id", proposal.ID, "pod_id", pod.ID, "user_id", actorID)
	e.publish(ctx, event.TypeProposalRequested, proposal, entity.OwnerIDs(pod.Members), entity.OwnerPushTokens(pod.Members))

	return proposal.Render(), nil
}

// resolveDuplicateRequest applies the duplicate/idempotency policy of the
// request path: identical pending proposals are returned unchanged, differing
// ones are updated in place, terminal ones reject the new request.
func (e *engineImpl) resolveDuplicateRequest(ctx context.Context, existing *entity.Proposal, pod *entity.Pod, in RequestAccessInput) (*entity.ProposalView, error) {
	if existing.IsTerminal() {
		return nil, apperr.Conflict("proposal %s is already %s, mutation is not permitted", existing.ID, existing.Status)
	}

	if existing.MatchesTerms(in.Role, in.PeriodMs, in.CheckIn) {
		return existing.Render(), nil
	}

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := e.proposals.GetByID(txCtx, existing.ID)
		if err != nil {
			return fmt.Errorf("reload proposal: %w", err)
		}
		if current == nil || !current.IsPending() {
			return apperr.Conflict("proposal %s is no longer pending", existing.ID)
		}
		return e.proposals.UpdateTerms(txCtx, existing.ID, in.Role, in.PeriodMs, in.CheckIn)
	})
	if err != nil {
		return nil, wrapWriteErr("update request", err)
	}

	existing.Role = in.Role
	existing.PeriodMs = in.PeriodMs
	existing.CheckIn = in.CheckIn
	existing.UpdatedAt = time.Now()

	e.logger.Info("Access request updated in place", "proposal_id", existing.ID, "pod_id", pod.ID)
	e.publish(ctx, event.TypeProposalUpdated, existing, entity.OwnerIDs(pod.Members), entity.OwnerPushTokens(pod.Members))

	return existing.Render(), nil
}

// RegisterAndRequestAccess creates the user and the request in one
// encompassing transaction
func (e *engineImpl) RegisterAndRequestAccess(ctx context.Context, reg RegisterInput, in RequestAccessInput) (*entity.ProposalView, error) {
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		return nil, apperr.Validation("name, email and password are required")
	}
	if err := validateTerms(in.Role, in.PeriodMs); err != nil {
		return nil, err
	}

	if existing, err := e.users.GetByEmail(ctx, reg.Email); err != nil {
		return nil, apperr.Transaction("lookup email", err)
	} else if existing != nil {
		return nil, apperr.Conflict("email %s is already registered", reg.Email)
	}

	// Pod resolution happens before any write: a missing pod must not leave
	// an orphaned user behind.
	pod, err := e.loadPodByRef(ctx, in.PodID, in.AccessCode)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Transaction("hash password", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         reg.Name,
		Email:        reg.Email,
		Phone:        reg.Phone,
		PasswordHash: string(hash),
		PushToken:    reg.PushToken,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	proposal := e.buildProposal(user, pod, in.Role, in.PeriodMs, in.CheckIn, in.PermissionSetID, false, user.ID, pod.ID)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.users.Create(txCtx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := e.proposals.Create(txCtx, proposal); err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		if err := e.users.AddProposalRef(txCtx, user.ID, proposal.ID, entity.RefKindRequest); err != nil {
			return fmt.Errorf("add user ref: %w", err)
		}
		if err := e.pods.AddProposalRef(txCtx, pod.ID, proposal.ID, entity.RefKindRequest, pod.Version); err != nil {
			return fmt.Errorf("add pod ref: %w", err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Combined signup+request write failed", "error", err, "pod_id", pod.ID, "email", reg.Email)
		return nil, wrapWriteErr("register and request access", err)
	}

	e.logger.Info("User registered with access request",
		"user_id", user.ID, "proposal_id", proposal.ID, "pod_id", pod.ID)
	e.publish(ctx, event.TypeProposalRequested, proposal, entity.OwnerIDs(pod.Members), entity.OwnerPushTokens(pod.Members))

	return proposal.Render(), nil
}

// SendInvitation creates an invitation from a pod owner to a user resolved by
// contact address
func (e *engineImpl) SendInvitation(ctx context.Context, actorID string, in InvitationInput) (*entity.ProposalView, error) {
	if in.InviteeEmail == "" {
		return nil, apperr.Validation("invitee email is required")
	}
	if err := validateTerms(in.Role, in.PeriodMs); err != nil {
		return nil, err
	}

	pod, err := e.loadPod(ctx, in.PodID)
	if err != nil {
		return nil, err
	}
	if !entity.IsOwner(pod.Members, actorID) {
		return nil, apperr.Unauthorized("user %s is not an owner of pod %s", actorID, pod.ID)
	}

	invitee, err := e.users.GetByEmail(ctx, in.InviteeEmail)
	if err != nil {
		return nil, apperr.Transaction("lookup invitee", err)
	}
	if invitee == nil {
		return nil, apperr.NotFound("no user with address %s", in.InviteeEmail)
	}
	if entity.HasMember(pod.Members, invitee.ID) {
		return nil, apperr.Conflict("user %s is already a member of pod %s", invitee.ID, pod.ID)
	}

	existing, err := e.proposals.FindPendingInvitation(ctx, in.InviteeEmail, pod.ID)
	if err != nil {
		return nil, apperr.Transaction("find existing invitation", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("an invitation to %s for pod %s is already pending", in.InviteeEmail, pod.ID)
	}

	proposal := e.buildProposal(invitee, pod, in.Role, in.PeriodMs, in.CheckIn, in.PermissionSetID, true, actorID, invitee.ID)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.proposals.Create(txCtx, proposal); err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		if err := e.users.AddProposalRef(txCtx, invitee.ID, proposal.ID, entity.RefKindInvitation); err != nil {
			return fmt.Errorf("add user ref: %w", err)
		}
		if err := e.pods.AddProposalRef(txCtx, pod.ID, proposal.ID, entity.RefKindInvitation, pod.Version); err != nil {
			return fmt.Errorf("add pod ref: %w", err)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Send invitation write failed", "error", err, "pod_id", pod.ID, "invitee", invitee.ID)
		return nil, wrapWriteErr("send invitation", err)
	}

	e.logger.Info("Invitation created", "proposal_id", proposal.ID, "pod_id", pod.ID, "invitee", invitee.ID)
	e.publish(ctx, event.TypeProposalInvited, proposal, []string{invitee.ID}, pushTokensOf(invitee))

	return proposal.Render(), nil
}

// CancelRequest cancels a pending request; only the original requester may
func (e *engineImpl) CancelRequest(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error) {
	proposal, pod, err := e.loadRequestProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.SenderID != actorID {
		return nil, apperr.Unauthorized("user %s is not the requester of proposal %s", actorID, proposalID)
	}

	if err := e.transition(ctx, proposal, domainwf.TriggerCancel, nil); err != nil {
		return nil, err
	}

	e.publish(ctx, event.TypeProposalCanceled, proposal, entity.OwnerIDs(pod.Members), entity.OwnerPushTokens(pod.Members))
	return proposal.Render(), nil
}

// RejectRequest rejects a pending request; only a pod owner may
func (e *engineImpl) RejectRequest(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error) {
	proposal, pod, err := e.loadRequestProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !entity.IsOwner(pod.Members, actorID) {
		return nil, apperr.Unauthorized("user %s is not an owner of pod %s", actorID, pod.ID)
	}

	if err := e.transition(ctx, proposal, domainwf.TriggerReject, nil); err != nil {
		return nil, err
	}

	e.notifyRequester(ctx, event.TypeProposalRejected, proposal)
	return proposal.Render(), nil
}

// AcceptRequest accepts a pending request, appending the membership entry and
// the requester's pod reference atomically; only a pod owner may
func (e *engineImpl) AcceptRequest(ctx context.Context, actorID, proposalID string, in AcceptInput) (*entity.ProposalView, error) {
	proposal, pod, err := e.loadRequestProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !entity.IsOwner(pod.Members, actorID) {
		return nil, apperr.Unauthorized("user %s is not an owner of pod %s", actorID, pod.ID)
	}

	role := in.Role
	if role == "" {
		role = proposal.Role
	}
	permSetID := in.PermissionSetID
	if permSetID == "" {
		permSetID = proposal.PermissionSetID
	}

	if err := e.admit(ctx, proposal, pod, role, permSetID); err != nil {
		return nil, err
	}

	e.notifyRequester(ctx, event.TypeProposalAccepted, proposal)
	return proposal.Render(), nil
}

// CancelInvitation cancels a pending invitation; only a pod owner may
func (e *engineImpl) CancelInvitation(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error) {
	proposal, pod, err := e.loadInvitationProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if !entity.IsOwner(pod.Members, actorID) {
		return nil, apperr.Unauthorized("user %s is not an owner of pod %s", actorID, pod.ID)
	}

	if err := e.transition(ctx, proposal, domainwf.TriggerCancel, nil); err != nil {
		return nil, err
	}

	e.notifyRequester(ctx, event.TypeProposalCanceled, proposal)
	return proposal.Render(), nil
}

// RejectInvitation rejects a pending invitation; only the invitee may
func (e *engineImpl) RejectInvitation(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error) {
	proposal, pod, err := e.loadInvitationProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.ReceiverID != actorID {
		return nil, apperr.Unauthorized("user %s is not the invitee of proposal %s", actorID, proposalID)
	}

	if err := e.transition(ctx, proposal, domainwf.TriggerReject, nil); err != nil {
		return nil, err
	}

	e.publish(ctx, event.TypeProposalRejected, proposal, entity.OwnerIDs(pod.Members), entity.OwnerPushTokens(pod.Members))
	return proposal.Render(), nil
}

// AcceptInvitation accepts a pending invitation; only the invitee may
func (e *engineImpl) AcceptInvitation(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error) {
	proposal, pod, err := e.loadInvitationProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.ReceiverID != actorID {
		return nil, apperr.Unauthorized("user %s is not the invitee of proposal %s", actorID, proposalID)
	}

	if err := e.admit(ctx, proposal, pod, proposal.Role, proposal.PermissionSetID); err != nil {
		return nil, err
	}

	e.publish(ctx, event.TypeProposalAccepted, proposal, entity.OwnerIDs(pod.Members), entity.OwnerPushTokens(pod.Members))
	return proposal.Render(), nil
}

// GetProposal returns one proposal; the actor must be a party to it or a pod
// owner
func (e *engineImpl) GetProposal(ctx context.Context, actorID, proposalID string) (*entity.ProposalView, error) {
	proposal, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	if proposal.SenderID != actorID && proposal.ReceiverID != actorID && proposal.Requester.UserID != actorID {
		pod, err := e.loadPod(ctx, proposal.Pod.PodID)
		if err != nil {
			return nil, err
		}
		if !entity.IsOwner(pod.Members, actorID) {
			return nil, apperr.Unauthorized("user %s is not a party to proposal %s", actorID, proposalID)
		}
	}

	return proposal.Render(), nil
}

// ListUserProposals returns the actor's sent requests and received invitations
func (e *engineImpl) ListUserProposals(ctx context.Context, actorID string) ([]*entity.ProposalView, []*entity.ProposalView, error) {
	if _, err := e.loadUser(ctx, actorID); err != nil {
		return nil, nil, err
	}

	requests, err := e.proposals.ListByUserKind(ctx, actorID, entity.RefKindRequest)
	if err != nil {
		return nil, nil, apperr.Transaction("list requests", err)
	}
	invitations, err := e.proposals.ListByUserKind(ctx, actorID, entity.RefKindInvitation)
	if err != nil {
		return nil, nil, apperr.Transaction("list invitations", err)
	}

	return renderAll(requests), renderAll(invitations), nil
}

// ListPodProposals returns a pod's pending proposals; only a pod owner may
func (e *engineImpl) ListPodProposals(ctx context.Context, actorID, podID string) ([]*entity.ProposalView, error) {
	pod, err := e.loadPod(ctx, podID)
	if err != nil {
		return nil, err
	}
	if !entity.IsOwner(pod.Members, actorID) {
		return nil, apperr.Unauthorized("user %s is not an owner of pod %s", actorID, podID)
	}

	proposals, err := e.proposals.ListPendingByPod(ctx, podID)
	if err != nil {
		return nil, apperr.Transaction("list pod proposals", err)
	}

	return renderAll(proposals), nil
}

// transition executes a terminal state transition as one atomic unit: the
// status is re-read inside the transaction so two racing calls cannot both
// pass the pending check, and extra writes supplied by apply share the same
// commit-or-abort fate.
func (e *engineImpl) transition(ctx context.Context, proposal *entity.Proposal, trigger domainwf.Trigger, apply func(txCtx context.Context) error) error {
	machine := BuildProposalStateMachine(domainwf.State(proposal.Status))
	if !machine.CanFire(trigger) {
		return apperr.Conflict("proposal %s is already %s, no further transition is permitted", proposal.ID, proposal.Status)
	}

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := e.proposals.GetByID(txCtx, proposal.ID)
		if err != nil {
			return fmt.Errorf("reload proposal: %w", err)
		}
		if current == nil {
			return apperr.NotFound("proposal %s", proposal.ID)
		}
		if current.Status == entity.StatusAccepted {
			return apperr.Conflict("proposal %s was already accepted", proposal.ID)
		}
		if !current.IsPending() {
			return apperr.Conflict("proposal %s is already %s", proposal.ID, current.Status)
		}

		if err := machine.Fire(txCtx, trigger); err != nil {
			return apperr.Conflict("proposal %s: %v", proposal.ID, err)
		}
		newState := machine.State()

		if err := e.proposals.UpdateStatus(txCtx, proposal.ID, newState.String()); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		if apply != nil {
			if err := apply(txCtx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Proposal transition failed",
			"error", err, "proposal_id", proposal.ID, "trigger", trigger.String())
		return wrapWriteErr("proposal transition", err)
	}

	proposal.Status = machine.State().String()
	proposal.UpdatedAt = time.Now()

	e.logger.Info("Proposal transitioned",
		"proposal_id", proposal.ID, "status", proposal.Status, "trigger", trigger.String())
	return nil
}

// admit fires the ACCEPT transition and, inside the same transaction, appends
// the membership entry to the pod and the pod reference to the user. The pod
// version observed at read time gates the membership write.
func (e *engineImpl) admit(ctx context.Context, proposal *entity.Proposal, pod *entity.Pod, role, permSetID string) error {
	if !entity.IsValidRole(role) {
		return apperr.Validation("invalid role %q", role)
	}
	if permSetID == "" {
		return apperr.Validation("a permission set is required to accept proposal %s", proposal.ID)
	}

	permSet, err := e.permSets.GetByID(ctx, permSetID)
	if err != nil {
		return apperr.Transaction("lookup permission set", err)
	}
	if permSet == nil {
		return apperr.NotFound("permission set %s", permSetID)
	}

	joiner, err := e.loadUser(ctx, proposal.Requester.UserID)
	if err != nil {
		return err
	}
	if entity.HasMember(pod.Members, joiner.ID) {
		return apperr.Conflict("user %s is already a member of pod %s", joiner.ID, pod.ID)
	}

	member := entity.Member{
		UserID:          joiner.ID,
		DisplayName:     proposal.Requester.Name,
		Role:            role,
		PermissionSetID: permSetID,
		PushToken:       joiner.PushToken,
		JoinedAt:        time.Now(),
	}

	return e.transition(ctx, proposal, domainwf.TriggerAccept, func(txCtx context.Context) error {
		if err := e.pods.AddMember(txCtx, pod.ID, member, pod.Version); err != nil {
			return fmt.Errorf("add member: %w", err)
		}
		if err := e.users.AddPodRef(txCtx, joiner.ID, pod.ID); err != nil {
			return fmt.Errorf("add pod ref: %w", err)
		}
		return nil
	})
}

// notifyRequester publishes an event addressed to the proposal's subject user
func (e *engineImpl) notifyRequester(ctx context.Context, eventType event.Type, proposal *entity.Proposal) {
	tokens, err := e.users.PushTokens(ctx, []string{proposal.Requester.UserID})
	if err != nil {
		e.logger.Error("Failed to resolve push tokens", "error", err, "user_id", proposal.Requester.UserID)
		tokens = nil
	}
	e.publish(ctx, eventType, proposal, []string{proposal.Requester.UserID}, tokens)
}

// publish hands a notification event to the dispatcher. Called strictly after
// commit; delivery failures never surface to the workflow caller.
func (e *engineImpl) publish(ctx context.Context, eventType event.Type, proposal *entity.Proposal, notifyUserIDs, pushTokens []string) {
	if e.dispatcher == nil {
		return
	}

	evt := event.NewEvent(eventType, proposal.ID, map[string]interface{}{
		"pod_id":          proposal.Pod.PodID,
		"pod_name":        proposal.Pod.Name,
		"requester_name":  proposal.Requester.Name,
		"role":            proposal.Role,
		"period_label":    entity.FormatPeriod(proposal.PeriodMs),
		"is_received":     proposal.IsReceived,
		"notify_user_ids": notifyUserIDs,
		"push_tokens":     pushTokens,
	})
	e.dispatcher.DispatchAsync(ctx, evt)
}

func (e *engineImpl) buildProposal(subject *entity.User, pod *entity.Pod, role string, periodMs int64, checkIn time.Time, permSetID string, isReceived bool, senderID, receiverID string) *entity.Proposal {
	now := time.Now()
	return &entity.Proposal{
		ID: uuid.NewString(),
		Requester: entity.RequesterSnapshot{
			UserID: subject.ID,
			Name:   subject.Name,
			Email:  subject.Email,
			Phone:  subject.Phone,
		},
		Pod: entity.PodSnapshot{
			PodID:      pod.ID,
			Name:       pod.Name,
			AccessCode: pod.AccessCode,
		},
		Role:            role,
		PeriodMs:        periodMs,
		Status:          entity.StatusPending,
		IsReceived:      isReceived,
		SenderID:        senderID,
		ReceiverID:      receiverID,
		CheckIn:         checkIn,
		PermissionSetID: permSetID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (e *engineImpl) loadUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.Transaction("lookup user", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user %s", userID)
	}
	return user, nil
}

func (e *engineImpl) loadPod(ctx context.Context, podID string) (*entity.Pod, error) {
	pod, err := e.pods.GetByID(ctx, podID)
	if err != nil {
		return nil, apperr.Transaction("lookup pod", err)
	}
	if pod == nil {
		return nil, apperr.NotFound("pod %s", podID)
	}
	return pod, nil
}

func (e *engineImpl) loadPodByRef(ctx context.Context, podID, accessCode string) (*entity.Pod, error) {
	if podID != "" {
		return e.loadPod(ctx, podID)
	}
	if accessCode == "" {
		return nil, apperr.Validation("pod id or access code is required")
	}
	pod, err := e.pods.GetByAccessCode(ctx, accessCode)
	if err != nil {
		return nil, apperr.Transaction("lookup pod by access code", err)
	}
	if pod == nil {
		return nil, apperr.NotFound("pod with access code %s", accessCode)
	}
	return pod, nil
}

func (e *engineImpl) loadProposal(ctx context.Context, proposalID string) (*entity.Proposal, error) {
	proposal, err := e.proposals.GetByID(ctx, proposalID)
	if err != nil {
		return nil, apperr.Transaction("lookup proposal", err)
	}
	if proposal == nil {
		return nil, apperr.NotFound("proposal %s", proposalID)
	}
	return proposal, nil
}

// loadRequestProposal loads a request-type proposal and its pod
func (e *engineImpl) loadRequestProposal(ctx context.Context, proposalID string) (*entity.Proposal, *entity.Pod, error) {
	proposal, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if proposal.IsReceived {
		return nil, nil, apperr.Conflict("proposal %s is an invitation, not a request", proposalID)
	}
	pod, err := e.loadPod(ctx, proposal.Pod.PodID)
	if err != nil {
		return nil, nil, err
	}
	return proposal, pod, nil
}

// loadInvitationProposal loads an invitation-type proposal and its pod
func (e *engineImpl) loadInvitationProposal(ctx context.Context, proposalID string) (*entity.Proposal, *entity.Pod, error) {
	proposal, err := e.loadProposal(ctx, proposalID)
	if err != nil {
		return nil, nil, err
	}
	if !proposal.IsReceived {
		return nil, nil, apperr.Conflict("proposal %s is a request, not an invitation", proposalID)
	}
	pod, err := e.loadPod(ctx, proposal.Pod.PodID)
	if err != nil {
		return nil, nil, err
	}
	return proposal, pod, nil
}

func validateTerms(role string, periodMs int64) error {
	if !entity.IsValidRole(role) {
		return apperr.Validation("invalid role %q", role)
	}
	if periodMs < 0 {
		return apperr.Validation("period must not be negative")
	}
	return nil
}

// wrapWriteErr classifies a failed multi-aggregate write: business errors
// raised inside the transaction pass through, stale-version aborts become
// conflicts, anything else is a retryable transaction failure.
func wrapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, port.ErrVersionMismatch) {
		return apperr.Conflict("%s: pod changed concurrently, retry", op)
	}
	return apperr.Transaction(op, err)
}

func pushTokensOf(user *entity.User) []string {
	if user.PushToken == "" {
		return nil
	}
	return []string{user.PushToken}
}

func renderAll(proposals []*entity.Proposal) []*entity.ProposalView {
	views := make([]*entity.ProposalView, 0, len(proposals))
	for _, p := range proposals {
		views = append(views, p.Render())
	}
	return views
}
