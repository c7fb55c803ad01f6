package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for session and password reset tokens.
type JWTConfig struct {
	Secret                 string
	Issuer                 string
	ExpirationHours        int
	ResetExpirationMinutes int
}

// NewJWTConfig creates a new JWT configuration from environment variables.
// It reads JWT_SECRET (required), JWT_ISSUER (default: career-compass),
// JWT_EXPIRATION_HOURS (default: 24) and JWT_RESET_EXPIRATION_MINUTES (default: 30).
func NewJWTConfig() (*JWTConfig, error) {
	config := &JWTConfig{
		Secret: envString("JWT_SECRET", ""),
		Issuer: envString("JWT_ISSUER", "career-compass"),
	}
	if config.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	var err error
	if config.ExpirationHours, err = envInt("JWT_EXPIRATION_HOURS", 24); err != nil {
		return nil, err
	}
	if config.ResetExpirationMinutes, err = envInt("JWT_RESET_EXPIRATION_MINUTES", 30); err != nil {
		return nil, err
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// SessionTTL is how long a login token stays valid.
func (c *JWTConfig) SessionTTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// ResetTTL is how long a password reset token stays valid.
func (c *JWTConfig) ResetTTL() time.Duration {
	return time.Duration(c.ResetExpirationMinutes) * time.Minute
}

func (c *JWTConfig) normalize() error {
	if len(c.Secret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	if c.ResetExpirationMinutes < 5 || c.ResetExpirationMinutes > 24*60 {
		return fmt.Errorf("JWT_RESET_EXPIRATION_MINUTES must be between 5 and 1440, got: %d", c.ResetExpirationMinutes)
	}
	return nil
}
