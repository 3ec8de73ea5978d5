package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/podhive/access-engine/internal/application/dispatcher"
	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NotificationService fans proposal events out to the affected users: an
// inbox record per recipient plus a best-effort push to their devices.
type NotificationService interface {
	RegisterHandlers(d dispatcher.Dispatcher)
	HandleProposalEvent(ctx context.Context, evt *event.Event) error
	ListInbox(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	pushSender       port.PushSender
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	pushSender port.PushSender,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		pushSender:       pushSender,
		logger:           logger,
	}
}

// RegisterHandlers subscribes the service to every proposal event type
func (s *notificationServiceImpl) RegisterHandlers(d dispatcher.Dispatcher) {
	for _, t := range []event.Type{
		event.TypeProposalRequested,
		event.TypeProposalInvited,
		event.TypeProposalUpdated,
		event.TypeProposalAccepted,
		event.TypeProposalRejected,
		event.TypeProposalCanceled,
	} {
		d.SubscribeNamed(t, "notification-service", s.HandleProposalEvent)
	}
}

// HandleProposalEvent materializes one event into inbox records and pushes.
// Each delivery leg is best-effort: one failed recipient never blocks the
// others.
func (s *notificationServiceImpl) HandleProposalEvent(ctx context.Context, evt *event.Event) error {
	content := buildContent(evt)

	recipients := evt.GetPayloadStrings("notify_user_ids")
	var failed int
	for _, userID := range recipients {
		notification := &entity.Notification{
			ID:         uuid.NewString(),
			UserID:     userID,
			Kind:       content.kind,
			Title:      content.title,
			Body:       content.body,
			ProposalID: evt.ProposalID,
			CreatedAt:  time.Now(),
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			failed++
			s.logger.Error("Failed to write inbox record",
				"error", err, "user_id", userID, "proposal_id", evt.ProposalID)
		}
	}

	tokens := evt.GetPayloadStrings("push_tokens")
	if len(tokens) > 0 {
		msg := entity.PushMessage{
			Title: content.title,
			Body:  content.body,
			Type:  content.kind,
			Data: map[string]string{
				"proposal_id": evt.ProposalID,
				"pod_id":      evt.GetPayloadString("pod_id"),
			},
		}
		if err := s.pushSender.Send(ctx, tokens, msg); err != nil {
			s.logger.Error("Push delivery failed",
				"error", err, "proposal_id", evt.ProposalID, "tokens", len(tokens))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d inbox writes failed", failed, len(recipients))
	}

	s.logger.Info("Proposal event delivered",
		"event_type", evt.Type, "proposal_id", evt.ProposalID, "recipients", len(recipients))
	return nil
}

// ListInbox returns a page of a user's inbox records
func (s *notificationServiceImpl) ListInbox(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByUser(ctx, userID, limit, offset)
}

// MarkRead marks one inbox record as read
func (s *notificationServiceImpl) MarkRead(ctx context.Context, id string) error {
	return s.notificationRepo.MarkRead(ctx, id)
}

type notificationContent struct {
	kind  string
	title string
	body  string
}

// buildContent renders the human-readable message for an event
func buildContent(evt *event.Event) notificationContent {
	podName := evt.GetPayloadString("pod_name")
	requester := evt.GetPayloadString("requester_name")
	role := evt.GetPayloadString("role")
	period := evt.GetPayloadString("period_label")
	isInvitation := evt.GetPayloadBool("is_received")

	switch evt.Type {
	case event.TypeProposalRequested:
		return notificationContent{
			kind:  entity.NotificationKindRequested,
			title: "New access request",
			body:  fmt.Sprintf("%s requested %s access to %s (%s)", requester, role, podName, period),
		}
	case event.TypeProposalInvited:
		return notificationContent{
			kind:  entity.NotificationKindInvited,
			title: "Pod invitation",
			body:  fmt.Sprintf("You are invited to join %s as %s (%s)", podName, role, period),
		}
	case event.TypeProposalUpdated:
		return notificationContent{
			kind:  entity.NotificationKindUpdated,
			title: "Access request updated",
			body:  fmt.Sprintf("%s changed their request for %s to %s (%s)", requester, podName, role, period),
		}
	case event.TypeProposalAccepted:
		if isInvitation {
			return notificationContent{
				kind:  entity.NotificationKindAccepted,
				title: "Invitation accepted",
				body:  fmt.Sprintf("%s accepted the invitation to %s", requester, podName),
			}
		}
		return notificationContent{
			kind:  entity.NotificationKindAccepted,
			title: "Request accepted",
			body:  fmt.Sprintf("Your request to join %s was accepted", podName),
		}
	case event.TypeProposalRejected:
		if isInvitation {
			return notificationContent{
				kind:  entity.NotificationKindRejected,
				title: "Invitation declined",
				body:  fmt.Sprintf("%s declined the invitation to %s", requester, podName),
			}
		}
		return notificationContent{
			kind:  entity.NotificationKindRejected,
			title: "Request declined",
			body:  fmt.Sprintf("Your request to join %s was declined", podName),
		}
	case event.TypeProposalCanceled:
		if isInvitation {
			return notificationContent{
				kind:  entity.NotificationKindCanceled,
				title: "Invitation withdrawn",
				body:  fmt.Sprintf("The invitation to %s was withdrawn", podName),
			}
		}
		return notificationContent{
			kind:  entity.NotificationKindCanceled,
			title: "Request withdrawn",
			body:  fmt.Sprintf("%s withdrew their request for %s", requester, podName),
		}
	default:
		return notificationContent{
			kind:  entity.NotificationKindUpdated,
			title: "Proposal update",
			body:  fmt.Sprintf("Proposal %s changed", evt.ProposalID),
		}
	}
}
