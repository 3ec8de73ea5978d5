package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/podhive/access-engine/internal/application/port"
	"github.com/podhive/access-engine/internal/domain/entity"
	"github.com/podhive/access-engine/internal/infrastructure/persistence/sqlite"
)

// openTestDB opens a per-test in-memory database with the real schema applied.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", t.Name())
	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../../migrations/001_initial_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return db
}

func seedPod(t *testing.T, db *sql.DB, id, accessCode, ownerID string, version int64) {
	t.Helper()
	now := time.Now()
	_, err := db.Exec(
		`INSERT INTO pods (id, name, access_code, owner_id, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, "Test Pod", accessCode, ownerID, version, now, now)
	require.NoError(t, err)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func testProposal(id string) *entity.Proposal {
	now := time.Now()
	return &entity.Proposal{
		ID: id,
		Requester: entity.RequesterSnapshot{
			UserID: "user-1",
			Name:   "Rex",
			Email:  "rex@example.com",
		},
		Pod: entity.PodSnapshot{
			PodID:      "pod-1",
			Name:       "Test Pod",
			AccessCode: "CODE-1",
		},
		Role:       entity.RoleGuest,
		PeriodMs:   86400000,
		Status:     entity.StatusPending,
		SenderID:   "user-1",
		ReceiverID: "pod-1",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestWithTransaction_RollbackDiscardsRepositoryWrites(t *testing.T) {
	db := openTestDB(t)
	logger := zap.NewNop()
	txManager := sqlite.NewDB(db, logger)
	users := NewUserRepository(db, logger)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := users.Create(txCtx, &entity.User{
			ID:           "user-1",
			Name:         "Rex",
			Email:        "rex@example.com",
			PasswordHash: "x",
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 0, countRows(t, db, "users"))

	got, err := users.GetByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWithTransaction_VersionMismatchLeavesAggregatesUntouched(t *testing.T) {
	db := openTestDB(t)
	logger := zap.NewNop()
	txManager := sqlite.NewDB(db, logger)
	users := NewUserRepository(db, logger)
	pods := NewPodRepository(db, logger)
	proposals := NewProposalRepository(db, logger)
	ctx := context.Background()

	seedPod(t, db, "pod-1", "CODE-1", "owner-1", 3)
	require.NoError(t, users.Create(ctx, &entity.User{
		ID: "user-1", Name: "Rex", Email: "rex@example.com",
		PasswordHash: "x", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	require.NoError(t, proposals.Create(ctx, testProposal("prop-1")))

	// Acceptance against a stale pod version must abort with nothing written.
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := proposals.UpdateStatus(txCtx, "prop-1", entity.StatusAccepted); err != nil {
			return err
		}
		if err := pods.AddMember(txCtx, "pod-1", entity.Member{
			UserID:      "user-1",
			DisplayName: "Rex",
			Role:        entity.RoleGuest,
			JoinedAt:    time.Now(),
		}, 99); err != nil {
			return err
		}
		return users.AddPodRef(txCtx, "user-1", "pod-1")
	})
	require.ErrorIs(t, err, port.ErrVersionMismatch)

	got, err := proposals.GetByID(ctx, "prop-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StatusPending, got.Status)

	assert.Equal(t, 0, countRows(t, db, "pod_members"))
	assert.Equal(t, 0, countRows(t, db, "user_pods"))

	pod, err := pods.GetByID(ctx, "pod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), pod.Version)
}

func TestWithTransaction_CommitPersistsAcceptance(t *testing.T) {
	db := openTestDB(t)
	logger := zap.NewNop()
	txManager := sqlite.NewDB(db, logger)
	users := NewUserRepository(db, logger)
	pods := NewPodRepository(db, logger)
	proposals := NewProposalRepository(db, logger)
	ctx := context.Background()

	seedPod(t, db, "pod-1", "CODE-1", "owner-1", 3)
	require.NoError(t, users.Create(ctx, &entity.User{
		ID: "user-1", Name: "Rex", Email: "rex@example.com",
		PasswordHash: "x", CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	require.NoError(t, proposals.Create(ctx, testProposal("prop-1")))

	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := proposals.UpdateStatus(txCtx, "prop-1", entity.StatusAccepted); err != nil {
			return err
		}
		if err := pods.AddMember(txCtx, "pod-1", entity.Member{
			UserID:      "user-1",
			DisplayName: "Rex",
			Role:        entity.RoleGuest,
			JoinedAt:    time.Now(),
		}, 3); err != nil {
			return err
		}
		return users.AddPodRef(txCtx, "user-1", "pod-1")
	})
	require.NoError(t, err)

	got, err := proposals.GetByID(ctx, "prop-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, got.Status)

	pod, err := pods.GetByID(ctx, "pod-1")
	require.NoError(t, err)
	require.Len(t, pod.Members, 1)
	assert.Equal(t, "user-1", pod.Members[0].UserID)
	assert.Equal(t, int64(4), pod.Version)

	assert.Equal(t, 1, countRows(t, db, "user_pods"))
}
