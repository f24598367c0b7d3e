package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/auth"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	m := auth.NewTokenManager("test-secret", time.Hour)

	token, err := m.Issue("user-1", auth.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.ID)
	assert.Equal(t, auth.RoleCustomer, identity.Role)
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	m := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := m.Issue("user-1", auth.RoleCustomer)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestTokenManager_Verify_BadSignature(t *testing.T) {
	issuer := auth.NewTokenManager("secret-a", time.Hour)
	verifier := auth.NewTokenManager("secret-b", time.Hour)

	token, err := issuer.Issue("user-1", auth.RoleCustomer)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrBadSignature)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestTokenManager_Verify_Malformed(t *testing.T) {
	m := auth.NewTokenManager("test-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "not_enough_segments", token: "abc.def"},
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.True(t, errors.Is(err, auth.ErrMalformedToken), "got %v", err)
		})
	}
}

func TestTokenManager_Verify_MissingRole(t *testing.T) {
	m := auth.NewTokenManager("test-secret", time.Hour)

	// A token signed by us but with an unknown role: cryptographically
	// valid, semantically broken.
	token, err := m.Issue("user-1", auth.Role("admin"))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	assert.NotErrorIs(t, err, apperr.ErrUnauthenticated)
}
