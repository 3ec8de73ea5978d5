package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsOwner(t *testing.T) {
	tests := []struct {
		name     string
		members  []Member
		userID   string
		expected bool
	}{
		{"empty membership list", []Member{}, "u1", false},
		{"nil membership list", nil, "u1", false},
		{
			"matching owner",
			[]Member{{UserID: "u1", Role: RoleOwner}},
			"u1",
			true,
		},
		{
			"matching user but not owner",
			[]Member{{UserID: "u1", Role: RoleMember}},
			"u1",
			false,
		},
		{
			"owner entry for someone else",
			[]Member{{UserID: "u2", Role: RoleOwner}},
			"u1",
			false,
		},
		{
			"owner among several members",
			[]Member{
				{UserID: "u2", Role: RoleGuest},
				{UserID: "u3", Role: RoleTenant},
				{UserID: "u1", Role: RoleOwner},
			},
			"u1",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOwner(tt.members, tt.userID))
		})
	}
}

func TestOwnerIDs(t *testing.T) {
	members := []Member{
		{UserID: "u1", Role: RoleOwner},
		{UserID: "u2", Role: RoleMember},
		{UserID: "u3", Role: RoleOwner},
	}

	assert.Equal(t, []string{"u1", "u3"}, OwnerIDs(members))
	assert.Nil(t, OwnerIDs(nil))
}

func TestOwnerPushTokens(t *testing.T) {
	members := []Member{
		{UserID: "u1", Role: RoleOwner, PushToken: "tok-1"},
		{UserID: "u2", Role: RoleOwner},
		{UserID: "u3", Role: RoleMember, PushToken: "tok-3"},
	}

	assert.Equal(t, []string{"tok-1"}, OwnerPushTokens(members))
}

func TestHasMember(t *testing.T) {
	members := []Member{{UserID: "u1", Role: RoleGuest}}

	assert.True(t, HasMember(members, "u1"))
	assert.False(t, HasMember(members, "u2"))
}
