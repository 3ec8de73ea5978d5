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

// PodRepository implements port.PodRepository
type PodRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPodRepository creates a new pod repository
func NewPodRepository(db *sql.DB, logger *zap.Logger) port.PodRepository {
	return &PodRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a pod with its membership list
func (r *PodRepository) GetByID(ctx context.Context, id string) (*entity.Pod, error) {
	return r.getPod(ctx, `WHERE id = ?`, id)
}

// GetByAccessCode retrieves a pod by its shareable access code
func (r *PodRepository) GetByAccessCode(ctx context.Context, accessCode string) (*entity.Pod, error) {
	return r.getPod(ctx, `WHERE access_code = ?`, accessCode)
}

func (r *PodRepository) getPod(ctx context.Context, where string, arg interface{}) (*entity.Pod, error) {
	query := `
		SELECT id, name, access_code, owner_id, version, created_at, updated_at
		FROM pods ` + where

	var pod entity.Pod
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, arg).Scan(
		&pod.ID,
		&pod.Name,
		&pod.AccessCode,
		&pod.OwnerID,
		&pod.Version,
		&pod.CreatedAt,
		&pod.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get pod", zap.Error(err))
		return nil, fmt.Errorf("failed to get pod: %w", err)
	}

	members, err := r.loadMembers(ctx, pod.ID)
	if err != nil {
		return nil, err
	}
	pod.Members = members

	return &pod, nil
}

func (r *PodRepository) loadMembers(ctx context.Context, podID string) ([]entity.Member, error) {
	query := `
		SELECT user_id, display_name, role, permission_set_id, push_token, joined_at
		FROM pod_members
		WHERE pod_id = ?
		ORDER BY joined_at ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, podID)
	if err != nil {
		r.logger.Error("Failed to load pod members", zap.String("pod_id", podID), zap.Error(err))
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	var members []entity.Member
	for rows.Next() {
		var m entity.Member
		var permSetID, pushToken sql.NullString
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.Role, &permSetID, &pushToken, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.PermissionSetID = permSetID.String
		m.PushToken = pushToken.String
		members = append(members, m)
	}

	return members, rows.Err()
}

// AddProposalRef links a proposal to the pod, gated on the version observed
// at read time
func (r *PodRepository) AddProposalRef(ctx context.Context, podID, proposalID, kind string, expectedVersion int64) error {
	if err := r.bumpVersion(ctx, podID, expectedVersion); err != nil {
		return err
	}

	query := `INSERT INTO pod_proposals (pod_id, proposal_id, kind, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, podID, proposalID, kind, time.Now())
	if err != nil {
		r.logger.Error("Failed to add pod proposal ref",
			zap.String("pod_id", podID), zap.String("proposal_id", proposalID), zap.Error(err))
		return fmt.Errorf("failed to add proposal ref: %w", err)
	}

	return nil
}

// AddMember appends a membership entry, gated on the version observed at read
// time
func (r *PodRepository) AddMember(ctx context.Context, podID string, member entity.Member, expectedVersion int64) error {
	if err := r.bumpVersion(ctx, podID, expectedVersion); err != nil {
		return err
	}

	query := `
		INSERT INTO pod_members (pod_id, user_id, display_name, role, permission_set_id, push_token, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		podID,
		member.UserID,
		member.DisplayName,
		member.Role,
		nullString(member.PermissionSetID),
		nullString(member.PushToken),
		member.JoinedAt,
	)
	if err != nil {
		r.logger.Error("Failed to add pod member",
			zap.String("pod_id", podID), zap.String("user_id", member.UserID), zap.Error(err))
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// bumpVersion performs the optimistic concurrency check: the version row
// update only matches when nobody mutated the pod since it was read.
func (r *PodRepository) bumpVersion(ctx context.Context, podID string, expectedVersion int64) error {
	query := `UPDATE pods SET version = version + 1, updated_at = ? WHERE id = ? AND version = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, time.Now(), podID, expectedVersion)
	if err != nil {
		r.logger.Error("Failed to bump pod version", zap.String("pod_id", podID), zap.Error(err))
		return fmt.Errorf("failed to bump version: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		r.logger.Warn("Pod version mismatch",
			zap.String("pod_id", podID), zap.Int64("expected_version", expectedVersion))
		return port.ErrVersionMismatch
	}

	return nil
}

// getExecutor returns appropriate executor based on context
func (r *PodRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.PodRepository = (*PodRepository)(nil)
