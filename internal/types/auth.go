// Package types provides the request, response and record types shared by the career-compass packages.
package types

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// CreateUserRequest represents the request to register a new user with password authentication.
type CreateUserRequest struct {
	Name      string   `json:"name" validate:"required,min=1"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8"`
	Stream    string   `json:"stream,omitempty"`
	Interests []string `json:"interests,omitempty" validate:"omitempty,max=20,dive,required"`
}

// LoginRequest represents the login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the public view of a user profile (avoids import cycle with db package).
type User struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Stream        string    `json:"stream"`
	Interests     []string  `json:"interests"`
	SavedRoadmaps []string  `json:"saved_roadmaps"`
	PasswordSet   bool      `json:"password_set"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LoginResponse represents the login/register response with user data and authentication token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// UpdatePasswordRequest represents a password update request.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// PasswordResetRequest starts a password reset for an email address.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest completes a password reset with the emailed token.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// UpdateProfileRequest updates the editable profile fields. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name      *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Stream    *string  `json:"stream,omitempty"`
	Interests []string `json:"interests,omitempty" validate:"omitempty,max=20,dive,required"`
}

// Validate validates the CreateUserRequest using the validator.
func (r *CreateUserRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdatePasswordRequest using the validator.
func (r *UpdatePasswordRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the UpdateProfileRequest using the validator.
func (r *UpdateProfileRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the PasswordResetRequest using the validator.
func (r *PasswordResetRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the PasswordResetConfirmRequest using the validator.
func (r *PasswordResetConfirmRequest) Validate() error {
	return validate.Struct(r)
}
