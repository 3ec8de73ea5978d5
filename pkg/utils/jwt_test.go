package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	assert.NoError(t, err)

	token, err := tm.Generate("user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm1, _ := NewTokenManager("secret-one", time.Hour)
	tm2, _ := NewTokenManager("secret-two", time.Hour)

	token, err := tm1.Generate("user-1")
	assert.NoError(t, err)

	_, err = tm2.Verify(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm, _ := NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Generate("user-1")
	assert.NoError(t, err)

	_, err = tm.Verify(token)
	assert.Error(t, err)
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}
