package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/domain/event"
)

type mockNotificationRepo struct {
	createFunc func(ctx context.Context, notification *entity.Notification) error

	created []*entity.Notification
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, notification); err != nil {
			return err
		}
	}
	m.created = append(m.created, notification)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range m.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string) error {
	for _, n := range m.created {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return errors.New("not found")
}

type mockPushSender struct {
	sendFunc func(ctx context.Context, addresses []string, msg entity.PushMessage) error

	sent []entity.PushMessage
}

func (m *mockPushSender) Send(ctx context.Context, addresses []string, msg entity.PushMessage) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, addresses, msg); err != nil {
			return err
		}
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func requestedEvent() *event.Event {
	return event.NewEvent(event.TypeProposalRequested, "prop-1", map[string]interface{}{
		"pod_id":          "pod-1",
		"pod_name":        "Harbor Pod",
		"requester_name":  "Rex Requester",
		"role":            entity.RoleGuest,
		"period_label":    "1 DAY",
		"is_received":     false,
		"notify_user_ids": []string{"owner-1", "owner-2"},
		"push_tokens":     []string{"tok-1", "tok-2"},
	})
}

func TestHandleProposalEvent_WritesInboxPerRecipient(t *testing.T) {
	repo := &mockNotificationRepo{}
	push := &mockPushSender{}
	svc := NewNotificationService(repo, push, mockLogger{})

	err := svc.HandleProposalEvent(context.Background(), requestedEvent())
	if err != nil {
		t.Fatalf("HandleProposalEvent() error = %v", err)
	}

	if len(repo.created) != 2 {
		t.Fatalf("created %d inbox records, want 2", len(repo.created))
	}
	for _, n := range repo.created {
		if n.Kind != entity.NotificationKindRequested {
			t.Errorf("Kind = %v, want %v", n.Kind, entity.NotificationKindRequested)
		}
		if n.ProposalID != "prop-1" {
			t.Errorf("ProposalID = %v, want prop-1", n.ProposalID)
		}
		if !strings.Contains(n.Body, "Rex Requester") || !strings.Contains(n.Body, "Harbor Pod") {
			t.Errorf("Body = %q, want requester and pod name", n.Body)
		}
		if !strings.Contains(n.Body, "1 DAY") {
			t.Errorf("Body = %q, want the period label", n.Body)
		}
	}

	if len(push.sent) != 1 {
		t.Fatalf("sent %d push batches, want 1", len(push.sent))
	}
	if push.sent[0].Data["proposal_id"] != "prop-1" {
		t.Errorf("push data = %v, want proposal_id prop-1", push.sent[0].Data)
	}
}

func TestHandleProposalEvent_PushFailureIsNotFatal(t *testing.T) {
	repo := &mockNotificationRepo{}
	push := &mockPushSender{
		sendFunc: func(ctx context.Context, addresses []string, msg entity.PushMessage) error {
			return errors.New("gateway timeout")
		},
	}
	svc := NewNotificationService(repo, push, mockLogger{})

	err := svc.HandleProposalEvent(context.Background(), requestedEvent())
	if err != nil {
		t.Errorf("HandleProposalEvent() error = %v, push failure must not propagate", err)
	}
	if len(repo.created) != 2 {
		t.Errorf("created %d inbox records, want 2 despite push failure", len(repo.created))
	}
}

func TestHandleProposalEvent_PartialInboxFailure(t *testing.T) {
	repo := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *entity.Notification) error {
			if n.UserID == "owner-1" {
				return errors.New("disk full")
			}
			return nil
		},
	}
	push := &mockPushSender{}
	svc := NewNotificationService(repo, push, mockLogger{})

	err := svc.HandleProposalEvent(context.Background(), requestedEvent())
	if err == nil {
		t.Error("HandleProposalEvent() error = nil, want error reporting the failed write")
	}
	if len(repo.created) != 1 {
		t.Errorf("created %d inbox records, want the surviving 1", len(repo.created))
	}
	if len(push.sent) != 1 {
		t.Errorf("sent %d push batches, want 1; one failed inbox write must not stop push", len(push.sent))
	}
}

func TestHandleProposalEvent_NoPushTokens(t *testing.T) {
	repo := &mockNotificationRepo{}
	push := &mockPushSender{}
	svc := NewNotificationService(repo, push, mockLogger{})

	evt := event.NewEvent(event.TypeProposalRejected, "prop-1", map[string]interface{}{
		"pod_name":        "Harbor Pod",
		"is_received":     false,
		"notify_user_ids": []string{"user-1"},
	})

	if err := svc.HandleProposalEvent(context.Background(), evt); err != nil {
		t.Fatalf("HandleProposalEvent() error = %v", err)
	}
	if len(push.sent) != 0 {
		t.Errorf("sent %d push batches, want 0 when no tokens are present", len(push.sent))
	}
}

func TestBuildContent_PerEventType(t *testing.T) {
	tests := []struct {
		name         string
		eventType    event.Type
		isInvitation bool
		wantKind     string
		wantInBody   string
	}{
		{"requested", event.TypeProposalRequested, false, entity.NotificationKindRequested, "requested"},
		{"invited", event.TypeProposalInvited, true, entity.NotificationKindInvited, "invited to join"},
		{"updated", event.TypeProposalUpdated, false, entity.NotificationKindUpdated, "changed their request"},
		{"request accepted", event.TypeProposalAccepted, false, entity.NotificationKindAccepted, "was accepted"},
		{"invitation accepted", event.TypeProposalAccepted, true, entity.NotificationKindAccepted, "accepted the invitation"},
		{"request declined", event.TypeProposalRejected, false, entity.NotificationKindRejected, "was declined"},
		{"invitation declined", event.TypeProposalRejected, true, entity.NotificationKindRejected, "declined the invitation"},
		{"request withdrawn", event.TypeProposalCanceled, false, entity.NotificationKindCanceled, "withdrew"},
		{"invitation withdrawn", event.TypeProposalCanceled, true, entity.NotificationKindCanceled, "withdrawn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := event.NewEvent(tt.eventType, "prop-1", map[string]interface{}{
				"pod_name":       "Harbor Pod",
				"requester_name": "Rex Requester",
				"role":           entity.RoleMember,
				"period_label":   "2 DAYS",
				"is_received":    tt.isInvitation,
			})

			content := buildContent(evt)
			if content.kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", content.kind, tt.wantKind)
			}
			if !strings.Contains(content.body, tt.wantInBody) {
				t.Errorf("body = %q, want substring %q", content.body, tt.wantInBody)
			}
		})
	}
}

func TestListInbox_ClampsPaging(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, &mockPushSender{}, mockLogger{})

	if err := svc.HandleProposalEvent(context.Background(), requestedEvent()); err != nil {
		t.Fatalf("HandleProposalEvent() error = %v", err)
	}

	items, err := svc.ListInbox(context.Background(), "owner-1", -5, -1)
	if err != nil {
		t.Fatalf("ListInbox() error = %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d inbox records for owner-1, want 1", len(items))
	}
}
