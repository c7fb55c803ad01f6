package db

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/types"
)

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// Store is the persistence boundary for users, applications, resume reviews and
// chat transcripts. Lookups that find nothing, or find a record owned by another
// user, return nil with a nil error.
type Store interface {
	Migrate(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, user *types.User, passwordHash string) error
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*types.User, error)
	SaveRoadmap(ctx context.Context, id uuid.UUID, slug string) (*types.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error

	CreateApplication(ctx context.Context, app *types.JobApplication) error
	GetApplication(ctx context.Context, userID, id uuid.UUID) (*types.JobApplication, error)
	ListApplications(ctx context.Context, userID uuid.UUID) ([]types.JobApplication, error)
	UpdateApplication(ctx context.Context, userID, id uuid.UUID, req *types.UpdateApplicationRequest) (*types.JobApplication, error)
	DeleteApplication(ctx context.Context, userID, id uuid.UUID) (bool, error)

	CreateResumeReview(ctx context.Context, review *types.ResumeReview) error
	GetResumeReview(ctx context.Context, userID, id uuid.UUID) (*types.ResumeReview, error)
	ListResumeReviews(ctx context.Context, userID uuid.UUID) ([]types.ResumeReview, error)

	SaveChatMessage(ctx context.Context, msg *types.ChatMessage) error
	ListChatMessages(ctx context.Context, userID uuid.UUID, limit int) ([]types.ChatMessage, error)
}

// Credentials is what login needs to check a password.
type Credentials struct {
	UserID       uuid.UUID
	PasswordHash string
	PasswordSet  bool
}

// DefaultChatHistoryLimit bounds ListChatMessages when no limit is given.
const DefaultChatHistoryLimit = 100

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddRoadmap returns saved with slug appended unless already present.
func AddRoadmap(saved []string, slug string) []string {
	for _, s := range saved {
		if s == slug {
			return saved
		}
	}
	return append(saved, slug)
}

// StringArray stores a string list as a JSON array for drivers without native arrays.
type StringArray []string

// Scan implements the Scanner interface for StringArray
func (a *StringArray) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = []string{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("StringArray: unsupported source type")
	}
}

// Value implements the Valuer interface for StringArray
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
