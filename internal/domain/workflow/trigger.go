package workflow

// Trigger represents an action that can cause a state transition
type Trigger string

const (
	TriggerAccept Trigger = "ACCEPT"
	TriggerReject Trigger = "REJECT"
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
