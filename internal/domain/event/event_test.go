package event

import (
	"testing"

	"github.com/google/uuid"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"proposal requested", TypeProposalRequested, true},
		{"proposal invited", TypeProposalInvited, true},
		{"proposal updated", TypeProposalUpdated, true},
		{"proposal accepted", TypeProposalAccepted, true},
		{"proposal rejected", TypeProposalRejected, true},
		{"proposal canceled", TypeProposalCanceled, true},
		{"unknown type", Type("proposal.bogus"), false},
		{"empty type", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeProposalAccepted, "prop-1", map[string]interface{}{
		"pod_id": "pod-1",
	})

	if evt.ID == "" {
		t.Error("NewEvent() generated empty ID")
	}
	if evt.CorrelationID == "" {
		t.Error("NewEvent() generated empty correlation ID")
	}
	if evt.ProposalID != "prop-1" {
		t.Errorf("ProposalID = %v, want prop-1", evt.ProposalID)
	}
	if evt.Timestamp.IsZero() {
		t.Error("NewEvent() left timestamp unset")
	}

	evt2 := NewEvent(TypeProposalAccepted, "prop-1", nil)
	if evt.ID == evt2.ID {
		t.Error("NewEvent() should generate unique IDs")
	}

	if _, err := uuid.Parse(evt.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", evt.ID, err)
	}
	if _, err := uuid.Parse(evt.CorrelationID); err != nil {
		t.Errorf("CorrelationID %q is not a uuid: %v", evt.CorrelationID, err)
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeProposalRejected, "prop-1", nil, "corr-9")
	if evt.CorrelationID != "corr-9" {
		t.Errorf("CorrelationID = %v, want corr-9", evt.CorrelationID)
	}
}

func TestEvent_PayloadGetters(t *testing.T) {
	evt := NewEvent(TypeProposalRequested, "prop-1", map[string]interface{}{
		"pod_name":    "Harbor Pod",
		"is_received": true,
		"owner_ids":   []string{"u1", "u2"},
		"tokens":      []interface{}{"t1", 42, "t2"},
	})

	if got := evt.GetPayloadString("pod_name"); got != "Harbor Pod" {
		t.Errorf("GetPayloadString() = %v, want Harbor Pod", got)
	}
	if got := evt.GetPayloadString("missing"); got != "" {
		t.Errorf("GetPayloadString(missing) = %v, want empty", got)
	}
	if !evt.GetPayloadBool("is_received") {
		t.Error("GetPayloadBool() = false, want true")
	}

	ids := evt.GetPayloadStrings("owner_ids")
	if len(ids) != 2 || ids[0] != "u1" {
		t.Errorf("GetPayloadStrings() = %v, want [u1 u2]", ids)
	}

	// Non-string elements in an interface slice are skipped
	tokens := evt.GetPayloadStrings("tokens")
	if len(tokens) != 2 || tokens[1] != "t2" {
		t.Errorf("GetPayloadStrings() = %v, want [t1 t2]", tokens)
	}

	if evt.GetPayloadStrings("missing") != nil {
		t.Error("GetPayloadStrings(missing) should be nil")
	}
}
