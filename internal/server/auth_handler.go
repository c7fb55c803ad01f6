package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jonathan/career-compass/internal/server/middleware"
	"github.com/jonathan/career-compass/internal/types"
)

// ResetNotifier delivers password reset tokens to users.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, user *types.User, token string) error
}

// LogResetNotifier writes reset tokens to the debug log. It stands in for email delivery in development.
type LogResetNotifier struct {
	Logger *slog.Logger
}

// SendPasswordReset implements ResetNotifier.
func (n LogResetNotifier) SendPasswordReset(ctx context.Context, user *types.User, token string) error {
	n.Logger.DebugContext(ctx, "password reset requested", "user_id", user.ID, "token", token)
	return nil
}

const resetRequestedMessage = "If an account exists for that email, a reset link has been sent."

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	notifier    ResetNotifier
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, notifier ResetNotifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		notifier:    notifier,
		logger:      logger,
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user *types.User) {
	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		h.logger.Error("failed to generate token", "user_id", user.ID, "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	jsonResponse(w, status, types.LoginResponse{User: user, Token: token})
}

// UpdatePassword handles password update requests for the session's user.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), session.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// RequestPasswordReset issues a reset token. The response is the same whether or
// not the email has an account.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordResetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	user, token, err := h.userService.RequestPasswordReset(r.Context(), req.Email)
	switch {
	case err != nil:
		h.logger.Error("password reset failed", "error", err)
	case user != nil:
		if err := h.notifier.SendPasswordReset(r.Context(), user, token); err != nil {
			h.logger.Error("failed to send password reset", "user_id", user.ID, "error", err)
		}
	}
	jsonResponse(w, http.StatusAccepted, map[string]string{"message": resetRequestedMessage})
}

// ConfirmPasswordReset sets a new password from a reset token.
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req types.PasswordResetConfirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	if err := h.userService.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}
