package auth_test

import (
	"testing"

	"github.com/avikl/user-admin-be/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := auth.NewTokenManager("test-secret")

	token, err := tm.Issue("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewTokenManager("secret-a").Issue("user-123")
	require.NoError(t, err)

	_, err = auth.NewTokenManager("secret-b").Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	tm := auth.NewTokenManager("test-secret")

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := tm.Validate(token)
		assert.Error(t, err, "token %q should not validate", token)
	}
}
