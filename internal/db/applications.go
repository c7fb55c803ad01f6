package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/types"
)

const applicationColumns = `id, user_id, job_title, company_name, status, date_applied, url, notes, created_at, updated_at`

func scanApplication(row rowScanner) (*types.JobApplication, error) {
	var a types.JobApplication
	if err := row.Scan(&a.ID, &a.UserID, &a.JobTitle, &a.CompanyName, &a.Status, &a.DateApplied,
		&a.URL, &a.Notes, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateApplication inserts app, assigning its ID and timestamps.
func (db *DB) CreateApplication(ctx context.Context, app *types.JobApplication) error {
	now := db.now()
	app.ID = uuid.New()
	app.CreatedAt, app.UpdatedAt = now, now

	_, err := db.pool.Exec(ctx,
		`INSERT INTO job_applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		app.ID, app.UserID, app.JobTitle, app.CompanyName, app.Status, app.DateApplied,
		app.URL, app.Notes, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetApplication returns the application if userID owns it.
func (db *DB) GetApplication(ctx context.Context, userID, id uuid.UUID) (*types.JobApplication, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// ListApplications returns the user's applications, newest first.
func (db *DB) ListApplications(ctx context.Context, userID uuid.UUID) ([]types.JobApplication, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := []types.JobApplication{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

// UpdateApplication applies the set fields of req to an owned application.
func (db *DB) UpdateApplication(ctx context.Context, userID, id uuid.UUID, req *types.UpdateApplicationRequest) (*types.JobApplication, error) {
	a, err := db.GetApplication(ctx, userID, id)
	if err != nil || a == nil {
		return nil, err
	}
	req.Apply(a)
	a.UpdatedAt = db.now()

	_, err = db.pool.Exec(ctx,
		`UPDATE job_applications
		 SET job_title = $1, company_name = $2, status = $3, date_applied = $4, url = $5, notes = $6, updated_at = $7
		 WHERE id = $8 AND user_id = $9`,
		a.JobTitle, a.CompanyName, a.Status, a.DateApplied, a.URL, a.Notes, a.UpdatedAt, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}
	return a, nil
}

// DeleteApplication removes an owned application, reporting whether it existed.
func (db *DB) DeleteApplication(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM job_applications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete application: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
