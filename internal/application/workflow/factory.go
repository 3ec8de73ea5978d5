package workflow

import (
	domainwf "github.com/podhive/access-engine/internal/domain/workflow"
)

// BuildProposalStateMachine creates a state machine configured for the
// access-proposal lifecycle
func BuildProposalStateMachine(initialState domainwf.State) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// PENDING state transitions
	builder.Configure(domainwf.StatePending).
		Permit(domainwf.TriggerAccept, domainwf.StateAccepted).
		Permit(domainwf.TriggerReject, domainwf.StateRejected).
		Permit(domainwf.TriggerCancel, domainwf.StateCanceled)

	// ACCEPTED, REJECTED and CANCELED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}
