package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/auth"
)

func TestJWTService_GenerateToken(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", 24*time.Hour)

	t.Run("round trips the user", func(t *testing.T) {
		token, err := jwtService.GenerateToken(42, "test@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		claims, err := jwtService.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, uint64(42), claims.UserID)
		assert.Equal(t, "test@example.com", claims.Email)
		assert.Equal(t, "42", claims.Subject)
		assert.Equal(t, "kanban-board-api", claims.Issuer)
	})
}

func TestJWTService_ValidateToken(t *testing.T) {
	t.Run("rejects wrong secret", func(t *testing.T) {
		token, err := auth.NewJWTService("secret-a", time.Hour).GenerateToken(1, "a@example.com")
		require.NoError(t, err)

		_, err = auth.NewJWTService("secret-b", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token, err := auth.NewJWTService("secret", -time.Minute).GenerateToken(1, "a@example.com")
		require.NoError(t, err)

		_, err = auth.NewJWTService("secret", time.Hour).ValidateToken(token)
		assert.ErrorIs(t, err, auth.ErrExpiredToken)
	})

	t.Run("rejects other signing methods", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: 1})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = auth.NewJWTService("secret", time.Hour).ValidateToken(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := auth.NewJWTService("secret", time.Hour).ValidateToken("not-a-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("supersecret")
	require.NoError(t, err)

	assert.True(t, auth.CheckPassword(hash, "supersecret"))
	assert.False(t, auth.CheckPassword(hash, "wrong"))
}
