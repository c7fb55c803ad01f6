package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/jonathan/career-compass/internal/server/middleware"
)

const (
	purposeSession       = "session"
	purposePasswordReset = "password_reset"
)

// Claims represents JWT claims with user ID.
type Claims struct {
	UserID  uuid.UUID `json:"user_id"`
	Purpose string    `json:"purpose"`
	// Fingerprint ties a reset token to the password hash it was issued against,
	// so the token stops working once the password changes.
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// JWTService issues and validates session and password reset tokens.
type JWTService struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken generates a session token for the given user ID.
func (s *JWTService) GenerateToken(userID uuid.UUID) (string, error) {
	return s.sign(&Claims{UserID: userID, Purpose: purposeSession}, s.config.SessionTTL())
}

// GenerateResetToken generates a short-lived password reset token bound to the
// fingerprint of the user's current password hash.
func (s *JWTService) GenerateResetToken(userID uuid.UUID, fingerprint string) (string, error) {
	return s.sign(&Claims{UserID: userID, Purpose: purposePasswordReset, Fingerprint: fingerprint}, s.config.ResetTTL())
}

func (s *JWTService) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.config.Issuer,
		Subject:   claims.UserID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		}
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// ValidateSession implements middleware.TokenValidator. Reset tokens are not sessions.
func (s *JWTService) ValidateSession(tokenString string) (middleware.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return middleware.Session{}, err
	}
	if claims.Purpose != purposeSession {
		return middleware.Session{}, fmt.Errorf("token is not a session token")
	}
	return middleware.Session{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// ValidateResetToken validates a password reset token and returns its claims.
func (s *JWTService) ValidateResetToken(tokenString string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purposePasswordReset || claims.Fingerprint == "" {
		return nil, fmt.Errorf("token is not a password reset token")
	}
	return claims, nil
}
