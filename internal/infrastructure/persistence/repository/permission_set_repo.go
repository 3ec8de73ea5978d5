package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/infrastructure/persistence/sqlite"
)

// PermissionSetRepository implements port.PermissionSetRepository
type PermissionSetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPermissionSetRepository creates a new permission set repository
func NewPermissionSetRepository(db *sql.DB, logger *zap.Logger) port.PermissionSetRepository {
	return &PermissionSetRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a permission set by ID
func (r *PermissionSetRepository) GetByID(ctx context.Context, id string) (*entity.PermissionSet, error) {
	query := `SELECT id, name, description, created_at FROM permission_sets WHERE id = ?`

	var ps entity.PermissionSet
	var description sql.NullString

	err := r.getExecutor(ctx).QueryRowContext(ctx, query, id).Scan(
		&ps.ID,
		&ps.Name,
		&description,
		&ps.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get permission set", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get permission set: %w", err)
	}

	ps.Description = description.String

	return &ps, nil
}

// getExecutor returns appropriate executor based on context
func (r *PermissionSetRepository) getExecutor(ctx context.Context) executor {
	if tx := sqlite.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// Verify interface compliance
var _ port.PermissionSetRepository = (*PermissionSetRepository)(nil)
