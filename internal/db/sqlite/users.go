package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/types"
)

const userColumns = `id, name, email, stream, interests, saved_roadmaps, password_set, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*types.User, error) {
	var (
		u                    types.User
		interests, roadmaps  db.StringArray
		createdAt, updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Stream, &interests, &roadmaps,
		&u.PasswordSet, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Interests = []string(interests)
	u.SavedRoadmaps = []string(roadmaps)
	u.CreatedAt = fromMicros(createdAt)
	u.UpdatedAt = fromMicros(updatedAt)
	return &u, nil
}

// CreateUser inserts user, assigning its ID and timestamps.
func (s *Store) CreateUser(ctx context.Context, user *types.User, passwordHash string) error {
	now := s.now()
	user.ID = uuid.New()
	user.Email = db.NormalizeEmail(user.Email)
	user.PasswordSet = passwordHash != ""
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Interests == nil {
		user.Interests = []string{}
	}
	if user.SavedRoadmaps == nil {
		user.SavedRoadmaps = []string{}
	}

	_, err := s.db.ExecContext(ctx, `
	INSERT INTO users (id, name, email, stream, interests, saved_roadmaps, password_hash, password_set, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, user.Stream, db.StringArray(user.Interests), db.StringArray(user.SavedRoadmaps),
		passwordHash, user.PasswordSet, toMicros(now), toMicros(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return db.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	return s.getUser(ctx, s.db, id)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getUser(ctx context.Context, q querier, id uuid.UUID) (*types.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	return u, nil
}

// GetCredentials returns the password hash for email.
func (s *Store) GetCredentials(ctx context.Context, email string) (*db.Credentials, error) {
	var c db.Credentials
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, password_set FROM users WHERE email = ?`, db.NormalizeEmail(email),
	).Scan(&c.UserID, &c.PasswordHash, &c.PasswordSet)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan credentials: %w", err)
	}
	return &c, nil
}

// UpdatePassword replaces the password hash.
func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, password_set = 1, updated_at = ? WHERE id = ?`,
		passwordHash, toMicros(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateProfile applies the set fields of req.
func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*types.User, error) {
	var updated *types.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		u, err := s.getUser(ctx, tx, id)
		if err != nil || u == nil {
			return err
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
		u.UpdatedAt = s.now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET name = ?, stream = ?, interests = ?, updated_at = ? WHERE id = ?`,
			u.Name, u.Stream, db.StringArray(u.Interests), toMicros(u.UpdatedAt), id,
		); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		updated = u
		return nil
	})
	return updated, err
}

// SaveRoadmap adds slug to the user's saved roadmaps.
func (s *Store) SaveRoadmap(ctx context.Context, id uuid.UUID, slug string) (*types.User, error) {
	var updated *types.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		u, err := s.getUser(ctx, tx, id)
		if err != nil || u == nil {
			return err
		}
		u.SavedRoadmaps = db.AddRoadmap(u.SavedRoadmaps, slug)
		u.UpdatedAt = s.now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET saved_roadmaps = ?, updated_at = ? WHERE id = ?`,
			db.StringArray(u.SavedRoadmaps), toMicros(u.UpdatedAt), id,
		); err != nil {
			return fmt.Errorf("save roadmap: %w", err)
		}
		updated = u
		return nil
	})
	return updated, err
}

// DeleteUser removes a user and everything they own.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"job_applications", "resume_reviews", "chat_messages"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = ?`, id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
