package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-key-thats-long-enough!"

func newTestService(t *testing.T) *hmacJWTService {
	t.Helper()

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	})
	require.NoError(t, err)

	return svc.(*hmacJWTService)
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   "too-short",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	})
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	token, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "refresh", claims.TokenType)
}

func TestTokenTypeEnforcement(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	access, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = svc.ValidateRefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestExpiredTokens(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	// Issue tokens in the past, beyond lifetime plus clock skew.
	issued := time.Now().Add(-24 * 8 * time.Hour)
	svc.timeFunc = func() time.Time { return issued }

	access, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(ctx, userID)
	require.NoError(t, err)

	svc.timeFunc = time.Now

	_, err = svc.ValidateToken(ctx, access)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = svc.ValidateRefreshToken(ctx, refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}

func TestMalformedAndTamperedTokens(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.ValidateToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateRefreshToken(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// A token signed with a different key must be rejected.
	other := newTestService(t)
	other.signingKey = []byte("another-secret-key-thats-long-enough")
	foreign, err := other.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateToken(ctx, foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBcryptVerifier(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	require.NoError(t, err)

	verifier := NewBcryptVerifier()
	assert.NoError(t, verifier.Compare(string(hash), "correct horse battery"))
	assert.Error(t, verifier.Compare(string(hash), "wrong password"))
}
