package users_test

import (
	"testing"

	"github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // bcrypt can hash empty strings!
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := users.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, users.ErrNoEmptyString)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = users.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := users.HashPassword("correct-horse")
	assert.NoError(t, err)

	assert.NoError(t, users.ComparePasswordAndHash("correct-horse", hash))
	assert.ErrorIs(t, users.ComparePasswordAndHash("battery-staple", hash), users.ErrMismatchedHashAndPassword)
	assert.Error(t, users.ComparePasswordAndHash("correct-horse", "not-a-digest"))
	assert.ErrorIs(t, users.ComparePasswordAndHash("", hash), users.ErrMismatchedHashAndPassword)
}

func TestRandomPasswordHash(t *testing.T) {
	first := users.RandomPasswordHash()
	assert.NotEmpty(t, first)

	second := users.RandomPasswordHash()
	assert.NotEqual(t, first, second)
}
