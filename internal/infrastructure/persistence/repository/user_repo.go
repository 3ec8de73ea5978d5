package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user row
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, push_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		nullString(user.Phone),
		user.PasswordHash,
		nullString(user.PushToken),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

func (r *UserRepository) getUser(ctx context.Context, where string, arg interface{}) (*entity.User, error) {
	query := `
		SELECT id, name, email, phone, password_hash, push_token, created_at, updated_at
		FROM users ` + where

	var user entity.User
	var phone, pushToken sql.NullString

	err := r.getExecutor(ctx).QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&phone,
		&user.PasswordHash,
		&pushToken,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Phone = phone.String
	user.PushToken = pushToken.String

	return &user, nil
}

// AddProposalRef links a proposal to the user's request or invitation list
func (r *UserRepository) AddProposalRef(ctx context.Context, userID, proposalID, kind string) error {
	query := `INSERT INTO user_proposals (user_id, proposal_id, kind, created_at) VALUES (?, ?, ?, ?)`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, userID, proposalID, kind, time.Now())
	if err != nil {
		r.logger.Error("Failed to add user proposal ref",
			zap.String("user_id", userID), zap.String("proposal_id", proposalID), zap.Error(err))
		return fmt.Errorf("failed to add proposal ref: %w", err)
	}

	return nil
}

// AddPodRef links a pod to the user's membership list
func (r *UserRepository) AddPodRef(ctx context.Context, userID, podID string) error {
	query := `INSERT INTO user_pods (user_id, pod_id, created_at) VALUES (?, ?, ?)`

	_, err := r.getExecutor(ctx).ExecContext(ctx, query, userID, podID, time.Now())
	if err != nil {
		r.logger.Error("Failed to add user pod ref",
			zap.String("user_id", userID), zap.String("pod_id", podID), zap.Error(err))
		return fmt.Errorf("failed to add pod ref: %w", err)
	}

	return nil
}

// PushTokens returns the non-empty push tokens of the given users
func (r *UserRepository) PushTokens(ctx context.Context, userIDs []string) ([]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(userIDs)-1) + "?"
	query := `SELECT push_token FROM users WHERE id IN (` + placeholders + `) AND push_token IS NOT NULL AND push_token != ''`

	args := make([]interface{}, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query push tokens", zap.Error(err))
		return nil, fmt.Errorf("failed to query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *UserRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
