package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/infrastructure/persistence/sqlite"
)

// ProposalRepository implements port.ProposalRepository
type ProposalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProposalRepository creates a new proposal repository
func NewProposalRepository(db *sql.DB, logger *zap.Logger) port.ProposalRepository {
	return &ProposalRepository{
		db:     db,
		logger: logger,
	}
}

const proposalColumns = `
	id, requester_user_id, requester_name, requester_email, requester_phone,
	pod_id, pod_name, pod_access_code,
	role, period_ms, status, is_received, sender_id, receiver_id,
	check_in, permission_set_id, created_at, updated_at
`

// Create inserts a new proposal row
func (r *ProposalRepository) Create(ctx context.Context, p *entity.Proposal) error {
	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		p.ID,
		p.Requester.UserID,
		p.Requester.Name,
		p.Requester.Email,
		p.Requester.Phone,
		p.Pod.PodID,
		p.Pod.Name,
		p.Pod.AccessCode,
		p.Role,
		p.PeriodMs,
		p.Status,
		p.IsReceived,
		p.SenderID,
		p.ReceiverID,
		nullTime(p.CheckIn),
		nullString(p.PermissionSetID),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create proposal", zap.String("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	return nil
}

// GetByID retrieves a proposal by ID
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*entity.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = ?`

	row := r.getExecutor(ctx).QueryRowContext(ctx, query, id)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get proposal by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}

	return p, nil
}

// FindLatestByRequesterAndPod returns the most recent request-type proposal
// for the (requester, pod) pair
func (r *ProposalRepository) FindLatestByRequesterAndPod(ctx context.Context, requesterID, podID string) (*entity.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE requester_user_id = ? AND pod_id = ? AND is_received = 0
		ORDER BY created_at DESC
		LIMIT 1
	`

	row := r.getExecutor(ctx).QueryRowContext(ctx, query, requesterID, podID)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find latest proposal",
			zap.String("requester_id", requesterID), zap.String("pod_id", podID), zap.Error(err))
		return nil, fmt.Errorf("failed to find proposal: %w", err)
	}

	return p, nil
}

// FindPendingInvitation returns the pending invitation addressed to the given
// email for the pod, if any
func (r *ProposalRepository) FindPendingInvitation(ctx context.Context, inviteeEmail, podID string) (*entity.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE requester_email = ? AND pod_id = ? AND is_received = 1 AND status = ?
		LIMIT 1
	`

	row := r.getExecutor(ctx).QueryRowContext(ctx, query, inviteeEmail, podID, entity.StatusPending)
	p, err := scanProposal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find pending invitation",
			zap.String("email", inviteeEmail), zap.String("pod_id", podID), zap.Error(err))
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	return p, nil
}

// UpdateTerms mutates the negotiable fields of a proposal in place
func (r *ProposalRepository) UpdateTerms(ctx context.Context, id, role string, periodMs int64, checkIn time.Time) error {
	query := `
		UPDATE proposals
		SET role = ?, period_ms = ?, check_in = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, role, periodMs, nullTime(checkIn), time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update proposal terms", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to update terms: %w", err)
	}

	return nil
}

// UpdateStatus updates the status of a proposal
func (r *ProposalRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE proposals SET status = ?, updated_at = ? WHERE id = ?`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update proposal status",
			zap.String("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}

	return nil
}

// ListByUserKind retrieves the proposals referenced by a user's request or
// invitation list, newest first
func (r *ProposalRepository) ListByUserKind(ctx context.Context, userID, kind string) ([]*entity.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE id IN (SELECT proposal_id FROM user_proposals WHERE user_id = ? AND kind = ?)
		ORDER BY created_at DESC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, userID, kind)
	if err != nil {
		r.logger.Error("Failed to list proposals by user",
			zap.String("user_id", userID), zap.String("kind", kind), zap.Error(err))
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	return collectProposals(rows)
}

// ListPendingByPod retrieves a pod's pending proposals, oldest first
func (r *ProposalRepository) ListPendingByPod(ctx context.Context, podID string) ([]*entity.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE pod_id = ? AND status = ?
		ORDER BY created_at ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, podID, entity.StatusPending)
	if err != nil {
		r.logger.Error("Failed to list pod proposals", zap.String("pod_id", podID), zap.Error(err))
		return nil, fmt.Errorf("failed to list pod proposals: %w", err)
	}
	defer rows.Close()

	return collectProposals(rows)
}

// scanner abstracts *sql.Row and *sql.Rows for proposal scanning
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProposal(s scanner) (*entity.Proposal, error) {
	var p entity.Proposal
	var checkIn sql.NullTime
	var permSetID sql.NullString

	err := s.Scan(
		&p.ID,
		&p.Requester.UserID,
		&p.Requester.Name,
		&p.Requester.Email,
		&p.Requester.Phone,
		&p.Pod.PodID,
		&p.Pod.Name,
		&p.Pod.AccessCode,
		&p.Role,
		&p.PeriodMs,
		&p.Status,
		&p.IsReceived,
		&p.SenderID,
		&p.ReceiverID,
		&checkIn,
		&permSetID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if checkIn.Valid {
		p.CheckIn = checkIn.Time
	}
	if permSetID.Valid {
		p.PermissionSetID = permSetID.String
	}

	return &p, nil
}

func collectProposals(rows *sql.Rows) ([]*entity.Proposal, error) {
	var proposals []*entity.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// getExecutor returns appropriate executor based on context
func (r *ProposalRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// executor interface covers both *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Verify interface compliance
var _ port.ProposalRepository = (*ProposalRepository)(nil)
