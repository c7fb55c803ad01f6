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

const applicationColumns = `id, user_id, job_title, company_name, status, date_applied, url, notes, created_at, updated_at`

func scanApplication(row rowScanner) (*types.JobApplication, error) {
	var (
		a                    types.JobApplication
		dateApplied          sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&a.ID, &a.UserID, &a.JobTitle, &a.CompanyName, &a.Status, &dateApplied,
		&a.URL, &a.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if dateApplied.Valid {
		t := fromMicros(dateApplied.Int64)
		a.DateApplied = &t
	}
	a.CreatedAt = fromMicros(createdAt)
	a.UpdatedAt = fromMicros(updatedAt)
	return &a, nil
}

func nullableMicros(app *types.JobApplication) any {
	if app.DateApplied == nil {
		return nil
	}
	return toMicros(*app.DateApplied)
}

// CreateApplication inserts app, assigning its ID and timestamps.
func (s *Store) CreateApplication(ctx context.Context, app *types.JobApplication) error {
	now := s.now()
	app.ID = uuid.New()
	app.CreatedAt, app.UpdatedAt = now, now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_applications (`+applicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		app.ID, app.UserID, app.JobTitle, app.CompanyName, string(app.Status), nullableMicros(app),
		app.URL, app.Notes, toMicros(now), toMicros(now),
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// GetApplication returns the application if userID owns it.
func (s *Store) GetApplication(ctx context.Context, userID, id uuid.UUID) (*types.JobApplication, error) {
	a, err := scanApplication(s.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan application row: %w", err)
	}
	return a, nil
}

// ListApplications returns the user's applications, newest first.
func (s *Store) ListApplications(ctx context.Context, userID uuid.UUID) ([]types.JobApplication, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	apps := []types.JobApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application row: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplication applies the set fields of req to an owned application.
func (s *Store) UpdateApplication(ctx context.Context, userID, id uuid.UUID, req *types.UpdateApplicationRequest) (*types.JobApplication, error) {
	a, err := s.GetApplication(ctx, userID, id)
	if err != nil || a == nil {
		return nil, err
	}
	req.Apply(a)
	a.UpdatedAt = s.now()

	_, err = s.db.ExecContext(ctx, `
	UPDATE job_applications
	SET job_title = ?, company_name = ?, status = ?, date_applied = ?, url = ?, notes = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`,
		a.JobTitle, a.CompanyName, string(a.Status), nullableMicros(a), a.URL, a.Notes, toMicros(a.UpdatedAt), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return a, nil
}

// DeleteApplication removes an owned application, reporting whether it existed.
func (s *Store) DeleteApplication(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM job_applications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete application: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete application: %w", err)
	}
	return n > 0, nil
}

const reviewColumns = `id, user_id, file_url, file_name, mime_type, feedback, is_fixable, uploaded_at`

func scanReview(row rowScanner) (*types.ResumeReview, error) {
	var (
		r          types.ResumeReview
		uploadedAt int64
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.FileURL, &r.FileName, &r.MIMEType, &r.Feedback, &r.IsFixable, &uploadedAt); err != nil {
		return nil, err
	}
	r.UploadedAt = fromMicros(uploadedAt)
	return &r, nil
}

// CreateResumeReview inserts review, assigning its ID and upload time.
func (s *Store) CreateResumeReview(ctx context.Context, review *types.ResumeReview) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.UploadedAt = s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resume_reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.UserID, review.FileURL, review.FileName, review.MIMEType,
		review.Feedback, review.IsFixable, toMicros(review.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("insert resume review: %w", err)
	}
	return nil
}

// GetResumeReview returns the review if userID owns it.
func (s *Store) GetResumeReview(ctx context.Context, userID, id uuid.UUID) (*types.ResumeReview, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM resume_reviews WHERE id = ? AND user_id = ?`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan resume review row: %w", err)
	}
	return r, nil
}

// ListResumeReviews returns the user's reviews, newest first.
func (s *Store) ListResumeReviews(ctx context.Context, userID uuid.UUID) ([]types.ResumeReview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM resume_reviews WHERE user_id = ? ORDER BY uploaded_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query resume reviews: %w", err)
	}
	defer rows.Close()

	reviews := []types.ResumeReview{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume review row: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

// SaveChatMessage appends an exchange to the user's transcript.
func (s *Store) SaveChatMessage(ctx context.Context, msg *types.ChatMessage) error {
	msg.ID = uuid.New()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, message, response, sent_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.UserID, msg.Message, msg.Response, toMicros(msg.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns the most recent limit exchanges, oldest first.
func (s *Store) ListChatMessages(ctx context.Context, userID uuid.UUID, limit int) ([]types.ChatMessage, error) {
	if limit <= 0 {
		limit = db.DefaultChatHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, user_id, message, response, sent_at FROM (
		SELECT rowid AS seq, * FROM chat_messages WHERE user_id = ? ORDER BY sent_at DESC, seq DESC LIMIT ?
	) ORDER BY sent_at, seq`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []types.ChatMessage{}
	for rows.Next() {
		var (
			m      types.ChatMessage
			sentAt int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &m.Response, &sentAt); err != nil {
			return nil, fmt.Errorf("scan chat message row: %w", err)
		}
		m.Timestamp = fromMicros(sentAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
