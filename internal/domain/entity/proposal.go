package entity

import "time"

// RequesterSnapshot is a denormalized copy of the requesting user's identity,
// captured when the proposal is created and never re-synced. Old proposals keep
// showing the name the user had at creation time even if the profile changes.
type RequesterSnapshot struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}

// PodSnapshot is a denormalized copy of the target pod's identity, captured
// when the proposal is created.
type PodSnapshot struct {
	PodID      string `json:"pod_id"`
	Name       string `json:"name"`
	AccessCode string `json:"access_code"`
}

// Proposal represents a pending, accepted, rejected, or canceled access
// request or invitation. Once the status leaves PENDING it is terminal and the
// record is never mutated again, nor physically deleted.
type Proposal struct {
	ID              string            `json:"id"`
	Requester       RequesterSnapshot `json:"requester"`
	Pod             PodSnapshot       `json:"pod"`
	Role            string            `json:"role"`
	PeriodMs        int64             `json:"period_ms"` // 0 means unbounded access
	Status          string            `json:"status"`
	IsReceived      bool              `json:"is_received"` // true: invitation from owner, false: request from member
	SenderID        string            `json:"sender_id"`
	ReceiverID      string            `json:"receiver_id"`
	CheckIn         time.Time         `json:"check_in"`
	PermissionSetID string            `json:"permission_set_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// IsPending returns true if the proposal can still be transitioned
func (p *Proposal) IsPending() bool {
	return p.Status == StatusPending
}

// IsTerminal returns true if the proposal reached a terminal status
func (p *Proposal) IsTerminal() bool {
	switch p.Status {
	case StatusAccepted, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// MatchesTerms reports whether the proposal already carries the requested
// role, period and check-in. Used to make repeated requests idempotent.
func (p *Proposal) MatchesTerms(role string, periodMs int64, checkIn time.Time) bool {
	return p.Role == role && p.PeriodMs == periodMs && p.CheckIn.Equal(checkIn)
}

// ProposalView is a proposal rendered for display: role and period mapped to
// human-readable labels and check-in mapped to a calendar date.
type ProposalView struct {
	Proposal
	PeriodLabel  string `json:"period_label"`
	CheckInLabel string `json:"check_in_label"`
}

// Render builds the display form of the proposal
func (p *Proposal) Render() *ProposalView {
	return &ProposalView{
		Proposal:     *p,
		PeriodLabel:  FormatPeriod(p.PeriodMs),
		CheckInLabel: FormatCheckIn(p.CheckIn),
	}
}
