package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/config"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/types"
)

// UserService provides business logic for user authentication operations
type UserService struct {
	store          db.Store
	passwordConfig *config.PasswordConfig
	tokens         *JWTService
}

// NewUserService creates a new UserService with the given dependencies
func NewUserService(store db.Store, passwordConfig *config.PasswordConfig, tokens *JWTService) *UserService {
	return &UserService{
		store:          store,
		passwordConfig: passwordConfig,
		tokens:         tokens,
	}
}

// Register creates a new user with password authentication
func (s *UserService) Register(ctx context.Context, req *types.CreateUserRequest) (*types.User, error) {
	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &types.User{
		Name:      req.Name,
		Email:     req.Email,
		Stream:    req.Stream,
		Interests: req.Interests,
	}
	if err := s.store.CreateUser(ctx, user, passwordHash); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return nil, &ErrEmailAlreadyExists{Email: db.NormalizeEmail(req.Email)}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user and returns user data
func (s *UserService) Login(ctx context.Context, req *types.LoginRequest) (*types.User, error) {
	creds, err := s.store.GetCredentials(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	// Unknown email and wrong password are indistinguishable to the caller.
	if creds == nil || !creds.PasswordSet {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, creds.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	user, err := s.store.GetUser(ctx, creds.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, &ErrInvalidCredentials{}
	}
	return user, nil
}

// credentials loads the password record for a user ID.
func (s *UserService) credentials(ctx context.Context, userID uuid.UUID) (*types.User, *db.Credentials, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, &ErrUserNotFound{UserID: userID}
	}
	creds, err := s.store.GetCredentials(ctx, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if creds == nil {
		return nil, nil, &ErrUserNotFound{UserID: userID}
	}
	return user, creds, nil
}

// UpdatePassword updates a user's password
func (s *UserService) UpdatePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	_, creds, err := s.credentials(ctx, userID)
	if err != nil {
		return err
	}
	if !s.passwordConfig.VerifyPassword(currentPassword, creds.PasswordHash) {
		return &ErrPasswordMismatch{}
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := s.passwordConfig.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a reset token for email. It returns a nil user and
// an empty token when no account exists, so callers can answer identically.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (*types.User, string, error) {
	creds, err := s.store.GetCredentials(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get credentials: %w", err)
	}
	if creds == nil {
		return nil, "", nil
	}
	user, err := s.store.GetUser(ctx, creds.UserID)
	if err != nil || user == nil {
		return nil, "", err
	}
	token, err := s.tokens.GenerateResetToken(creds.UserID, config.Fingerprint(creds.PasswordHash))
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ConfirmPasswordReset sets a new password using a reset token. A token only
// works while the password it was issued against is unchanged, which also makes
// it single-use.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.ValidateResetToken(token)
	if err != nil {
		return &ErrInvalidResetToken{Cause: err}
	}
	_, creds, err := s.credentials(ctx, claims.UserID)
	if err != nil {
		var notFound *ErrUserNotFound
		if errors.As(err, &notFound) {
			return &ErrInvalidResetToken{Cause: err}
		}
		return err
	}
	if config.Fingerprint(creds.PasswordHash) != claims.Fingerprint {
		return &ErrInvalidResetToken{}
	}
	return s.setPassword(ctx, claims.UserID, newPassword)
}
