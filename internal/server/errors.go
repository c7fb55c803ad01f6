// Package server provides the career-compass HTTP API.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/form"
	"github.com/jonathan/career-compass/internal/storage"
)

// genericFailure is the only failure text clients see for model errors.
const genericFailure = "Something went wrong. Please try again."

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrInvalidResetToken indicates an expired, forged or already used reset token.
type ErrInvalidResetToken struct {
	Cause error
}

func (e *ErrInvalidResetToken) Error() string {
	return "invalid or expired reset token"
}

func (e *ErrInvalidResetToken) Unwrap() error {
	return e.Cause
}

// ErrNotFound indicates a record that does not exist or belongs to someone else.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return e.Resource + " not found"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		emailTaken *ErrEmailAlreadyExists
		badCreds   *ErrInvalidCredentials
		mismatch   *ErrPasswordMismatch
		noUser     *ErrUserNotFound
		notFound   *ErrNotFound
		badReset   *ErrInvalidResetToken
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &emailTaken), errors.Is(err, db.ErrEmailTaken):
		return http.StatusConflict
	case errors.As(err, &badCreds), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &noUser), errors.As(err, &notFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &badReset):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, form.ErrBusy):
		return http.StatusConflict
	}

	switch flow.KindOf(err) {
	case flow.KindValidation:
		return http.StatusBadRequest
	case flow.KindUnavailable:
		return http.StatusServiceUnavailable
	case flow.KindMalformedOutput, flow.KindEmpty:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
