package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secret#123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyPassword(hash, "Secret#123"))
	assert.False(t, VerifyPassword(hash, "Secret#124"))
	assert.False(t, VerifyPassword("not-a-hash", "Secret#123"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"valid", "Secret#123", ""},
		{"too short", "S#1a", "Password must be at least 8 characters"},
		{"no uppercase", "secret#123", "Password must contain at least one uppercase letter"},
		{"no lowercase", "SECRET#123", "Password must contain at least one lowercase letter"},
		{"no digit", "Secret#abc", "Password must contain at least one number"},
		{"no special", "Secret1234", `Password must contain at least one special character (!@#$%^&*(),.?":{}|<>)`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidatePassword(tc.password))
		})
	}
}
