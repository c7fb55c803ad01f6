package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/types"
)

const reviewColumns = `id, user_id, file_url, file_name, mime_type, feedback, is_fixable, uploaded_at`

func scanReview(row rowScanner) (*types.ResumeReview, error) {
	var r types.ResumeReview
	if err := row.Scan(&r.ID, &r.UserID, &r.FileURL, &r.FileName, &r.MIMEType, &r.Feedback, &r.IsFixable, &r.UploadedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateResumeReview inserts review, assigning its ID and upload time.
func (db *DB) CreateResumeReview(ctx context.Context, review *types.ResumeReview) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	review.UploadedAt = db.now()

	_, err := db.pool.Exec(ctx,
		`INSERT INTO resume_reviews (`+reviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		review.ID, review.UserID, review.FileURL, review.FileName, review.MIMEType,
		review.Feedback, review.IsFixable, review.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create resume review: %w", err)
	}
	return nil
}

// GetResumeReview returns the review if userID owns it.
func (db *DB) GetResumeReview(ctx context.Context, userID, id uuid.UUID) (*types.ResumeReview, error) {
	r, err := scanReview(db.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM resume_reviews WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume review: %w", err)
	}
	return r, nil
}

// ListResumeReviews returns the user's reviews, newest first.
func (db *DB) ListResumeReviews(ctx context.Context, userID uuid.UUID) ([]types.ResumeReview, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM resume_reviews WHERE user_id = $1 ORDER BY uploaded_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resume reviews: %w", err)
	}
	defer rows.Close()

	reviews := []types.ResumeReview{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume review: %w", err)
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}
