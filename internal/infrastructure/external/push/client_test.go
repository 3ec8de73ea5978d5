package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/domain/entity"
)

func TestClient_Send(t *testing.T) {
	var received pushRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", 5*time.Second, zap.NewNop())

	err := client.Send(context.Background(), []string{"tok-1", "tok-2"}, entity.PushMessage{
		Title: "Pod invitation",
		Body:  "You are invited to join Harbor Pod",
		Type:  entity.NotificationKindInvited,
		Data:  map[string]string{"proposal_id": "prop-1"},
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(received.To) != 2 {
		t.Errorf("To = %v, want 2 addresses", received.To)
	}
	if received.Title != "Pod invitation" {
		t.Errorf("Title = %q", received.Title)
	}
	if received.Data["proposal_id"] != "prop-1" {
		t.Errorf("Data = %v, want proposal_id prop-1", received.Data)
	}
}

func TestClient_SendGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, zap.NewNop())

	err := client.Send(context.Background(), []string{"tok-1"}, entity.PushMessage{Title: "t", Body: "b"})
	if err == nil {
		t.Error("Send() error = nil, want error on non-2xx status")
	}
}

func TestClient_SendNoAddresses(t *testing.T) {
	client := NewClient("http://unreachable.invalid", "", time.Second, zap.NewNop())

	if err := client.Send(context.Background(), nil, entity.PushMessage{}); err != nil {
		t.Errorf("Send() with no addresses error = %v, want nil", err)
	}
}

func TestClient_SendUnconfiguredEndpoint(t *testing.T) {
	client := NewClient("", "", time.Second, zap.NewNop())

	if err := client.Send(context.Background(), []string{"tok-1"}, entity.PushMessage{}); err != nil {
		t.Errorf("Send() without endpoint error = %v, want nil", err)
	}
}
