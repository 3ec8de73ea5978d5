package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", NotFound("pod %s", "p1"), KindNotFound},
		{"unauthorized", Unauthorized("not an owner"), KindUnauthorized},
		{"conflict", Conflict("proposal already ACCEPTED"), KindConflict},
		{"validation", Validation("role missing"), KindValidation},
		{"transaction", Transaction("commit", errors.New("disk full")), KindTransaction},
		{"plain error", errors.New("boom"), Kind("")},
		{"wrapped apperr", fmt.Errorf("engine: %w", Conflict("stale version")), KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("sqlite busy")
	err := Transaction("membership write", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "TRANSACTION_FAILED")
	assert.Contains(t, err.Error(), "sqlite busy")
}

func TestIsKind(t *testing.T) {
	err := NotFound("proposal %s", "x")
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(nil, KindNotFound))
}
