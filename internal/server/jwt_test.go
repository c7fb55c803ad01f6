package server

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:                 "test-secret-0123456789",
		Issuer:                 "career-compass",
		ExpirationHours:        24,
		ResetExpirationMinutes: 30,
	}
}

func TestJWTService_SessionRoundTrip(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	userID := uuid.New()

	token, err := svc.GenerateToken(userID)
	require.NoError(t, err)

	session, err := svc.ValidateSession(token)
	require.NoError(t, err)
	assert.Equal(t, userID, session.UserID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), session.ExpiresAt, time.Minute)

	_, err = svc.ValidateResetToken(token)
	assert.Error(t, err, "a session token cannot reset a password")
}

func TestJWTService_ResetToken(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	userID := uuid.New()

	token, err := svc.GenerateResetToken(userID, config.Fingerprint("$2a$04$hash"))
	require.NoError(t, err)

	claims, err := svc.ValidateResetToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, config.Fingerprint("$2a$04$hash"), claims.Fingerprint)

	_, err = svc.ValidateSession(token)
	assert.Error(t, err, "a reset token is not a session")
}

func TestJWTService_Expiry(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateResetToken(uuid.New(), "fp")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(29 * time.Minute) }
	_, err = svc.ValidateResetToken(token)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(31 * time.Minute) }
	_, err = svc.ValidateResetToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(testJWTConfig())
	token, err := svc.GenerateToken(uuid.New())
	require.NoError(t, err)

	otherSecret := testJWTConfig()
	otherSecret.Secret = "another-secret-0123456789"
	_, err = NewJWTService(otherSecret).ValidateToken(token)
	assert.Error(t, err)

	otherIssuer := testJWTConfig()
	otherIssuer.Issuer = "someone-else"
	_, err = NewJWTService(otherIssuer).ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken("")
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.jwt")
	assert.Error(t, err)

	_, err = svc.ValidateToken(token[:len(token)-2] + "xx")
	assert.Error(t, err)
}
