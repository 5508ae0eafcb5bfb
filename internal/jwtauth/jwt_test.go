package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "goalplan", "goalplan-api")
	userID, err := id.ParseUserID("7d3fb1f6-6f39-4e68-9df5-4f26a14b7a01")
	require.NoError(t, err)

	t.Run("valid token carries the user ID", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		got, err := svc.ExtractUserID(token)
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key is unauthorized", func(t *testing.T) {
		other := NewService("other-key", "goalplan", "goalplan-api")
		token, err := other.GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
