package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StatePending, false},
		{StateAccepted, true},
		{StateRejected, true},
		{StateCanceled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"pending", StatePending, true},
		{"canceled", StateCanceled, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerAccept.String(); got != "ACCEPT" {
		t.Errorf("Trigger.String() = %v, want %v", got, "ACCEPT")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StatePending)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configure same state again should return same config
	config2 := builder.Configure(StatePending)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("BOGUS"))
}

func TestStateMachine_Fire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerCancel, StateCanceled)

	machine := builder.Build(StatePending)

	if err := machine.Fire(context.Background(), TriggerAccept); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if machine.State() != StateAccepted {
		t.Errorf("State() = %v, want %v", machine.State(), StateAccepted)
	}
}

func TestStateMachine_FireFromTerminalState(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerCancel, StateCanceled)

	machine := builder.Build(StatePending)
	if err := machine.Fire(context.Background(), TriggerCancel); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}

	// All triggers must fail once the machine reaches a terminal state
	for _, trigger := range []Trigger{TriggerAccept, TriggerReject, TriggerCancel} {
		err := machine.Fire(context.Background(), trigger)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", trigger, err)
		}
		if machine.State() != StateCanceled {
			t.Errorf("State() = %v, want %v after failed fire", machine.State(), StateCanceled)
		}
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted)

	machine := builder.Build(StatePending)

	if !machine.CanFire(TriggerAccept) {
		t.Error("CanFire(ACCEPT) = false, want true")
	}
	if machine.CanFire(TriggerReject) {
		t.Error("CanFire(REJECT) = true, want false")
	}
}

func TestStateMachine_GuardBlocksTransition(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		PermitIf(TriggerAccept, StateAccepted, func(ctx context.Context) bool { return false })

	machine := builder.Build(StatePending)

	err := machine.Fire(context.Background(), TriggerAccept)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want ErrGuardFailed", err)
	}
	if machine.State() != StatePending {
		t.Errorf("State() = %v, want %v", machine.State(), StatePending)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StatePending).
		Permit(TriggerAccept, StateAccepted).
		Permit(TriggerReject, StateRejected)

	machine := builder.Build(StatePending)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	machine = builder.Build(StateAccepted)
	if len(machine.PermittedTriggers()) != 0 {
		t.Error("PermittedTriggers() from terminal state should be empty")
	}
}
