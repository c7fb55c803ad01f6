package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/types"
)

const userColumns = `id, name, email, stream, interests, saved_roadmaps, password_set, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var u types.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Stream, &u.Interests, &u.SavedRoadmaps,
		&u.PasswordSet, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if u.Interests == nil {
		u.Interests = []string{}
	}
	if u.SavedRoadmaps == nil {
		u.SavedRoadmaps = []string{}
	}
	return &u, nil
}

// CreateUser inserts user, assigning its ID and timestamps. A non-empty
// passwordHash marks the password as set.
func (db *DB) CreateUser(ctx context.Context, user *types.User, passwordHash string) error {
	now := db.now()
	user.ID = uuid.New()
	user.Email = NormalizeEmail(user.Email)
	user.PasswordSet = passwordHash != ""
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Interests == nil {
		user.Interests = []string{}
	}
	if user.SavedRoadmaps == nil {
		user.SavedRoadmaps = []string{}
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, stream, interests, saved_roadmaps, password_hash, password_set, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Name, user.Email, user.Stream, user.Interests, user.SavedRoadmaps,
		passwordHash, user.PasswordSet, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetCredentials returns the password hash for email.
func (db *DB) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	var c Credentials
	err := db.pool.QueryRow(ctx,
		`SELECT id, password_hash, password_set FROM users WHERE email = $1`,
		NormalizeEmail(email),
	).Scan(&c.UserID, &c.PasswordHash, &c.PasswordSet)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	return &c, nil
}

// UpdatePassword replaces the password hash.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1, password_set = TRUE, updated_at = $2 WHERE id = $3`,
		passwordHash, db.now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateProfile applies the set fields of req and returns the updated user.
func (db *DB) UpdateProfile(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*types.User, error) {
	u, err := db.GetUser(ctx, id)
	if err != nil || u == nil {
		return nil, err
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Stream != nil {
		u.Stream = *req.Stream
	}
	if req.Interests != nil {
		u.Interests = req.Interests
	}
	u.UpdatedAt = db.now()

	_, err = db.pool.Exec(ctx,
		`UPDATE users SET name = $1, stream = $2, interests = $3, updated_at = $4 WHERE id = $5`,
		u.Name, u.Stream, u.Interests, u.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// SaveRoadmap adds slug to the user's saved roadmaps.
func (db *DB) SaveRoadmap(ctx context.Context, id uuid.UUID, slug string) (*types.User, error) {
	u, err := scanUser(db.pool.QueryRow(ctx,
		`UPDATE users
		 SET saved_roadmaps = CASE WHEN $1 = ANY(saved_roadmaps) THEN saved_roadmaps ELSE array_append(saved_roadmaps, $1) END,
		     updated_at = $2
		 WHERE id = $3
		 RETURNING `+userColumns,
		slug, db.now(), id,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to save roadmap: %w", err)
	}
	return u, nil
}

// DeleteUser removes a user and, by cascade, everything they own.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
