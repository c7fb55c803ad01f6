package types

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the stage of a job application.
type ApplicationStatus string

const (
	StatusWishlist     ApplicationStatus = "Wishlist"
	StatusApplied      ApplicationStatus = "Applied"
	StatusInterviewing ApplicationStatus = "Interviewing"
	StatusOffer        ApplicationStatus = "Offer"
	StatusRejected     ApplicationStatus = "Rejected"
)

// ApplicationStatuses lists every status in board order.
var ApplicationStatuses = []ApplicationStatus{
	StatusWishlist,
	StatusApplied,
	StatusInterviewing,
	StatusOffer,
	StatusRejected,
}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// JobApplication is a tracked job application owned by one user.
type JobApplication struct {
	ID          uuid.UUID         `json:"id"`
	UserID      uuid.UUID         `json:"user_id"`
	JobTitle    string            `json:"job_title"`
	CompanyName string            `json:"company_name"`
	Status      ApplicationStatus `json:"status"`
	DateApplied *time.Time        `json:"date_applied,omitempty"`
	URL         string            `json:"url,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateApplicationRequest is the body of a new application.
type CreateApplicationRequest struct {
	JobTitle    string            `json:"job_title" validate:"required,min=2"`
	CompanyName string            `json:"company_name" validate:"required,min=2"`
	Status      ApplicationStatus `json:"status" validate:"required,oneof=Wishlist Applied Interviewing Offer Rejected"`
	DateApplied *time.Time        `json:"date_applied,omitempty"`
	URL         string            `json:"url,omitempty" validate:"omitempty,url"`
	Notes       string            `json:"notes,omitempty" validate:"max=5000"`
}

// Validate validates the CreateApplicationRequest using the validator.
func (r *CreateApplicationRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateApplicationRequest is a partial update. Nil fields are left unchanged.
type UpdateApplicationRequest struct {
	JobTitle    *string            `json:"job_title,omitempty" validate:"omitempty,min=2"`
	CompanyName *string            `json:"company_name,omitempty" validate:"omitempty,min=2"`
	Status      *ApplicationStatus `json:"status,omitempty" validate:"omitempty,oneof=Wishlist Applied Interviewing Offer Rejected"`
	DateApplied *time.Time         `json:"date_applied,omitempty"`
	URL         *string            `json:"url,omitempty" validate:"omitempty,url"`
	Notes       *string            `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// Validate validates the UpdateApplicationRequest using the validator.
func (r *UpdateApplicationRequest) Validate() error {
	return validate.Struct(r)
}

// Apply copies the set fields of r onto app.
func (r *UpdateApplicationRequest) Apply(app *JobApplication) {
	if r.JobTitle != nil {
		app.JobTitle = *r.JobTitle
	}
	if r.CompanyName != nil {
		app.CompanyName = *r.CompanyName
	}
	if r.Status != nil {
		app.Status = *r.Status
	}
	if r.DateApplied != nil {
		app.DateApplied = r.DateApplied
	}
	if r.URL != nil {
		app.URL = *r.URL
	}
	if r.Notes != nil {
		app.Notes = *r.Notes
	}
}

// Board groups applications by status. Every status has an entry, possibly empty,
// and each column keeps the input order.
func Board(apps []JobApplication) map[ApplicationStatus][]JobApplication {
	board := make(map[ApplicationStatus][]JobApplication, len(ApplicationStatuses))
	for _, s := range ApplicationStatuses {
		board[s] = []JobApplication{}
	}
	for _, app := range apps {
		board[app.Status] = append(board[app.Status], app)
	}
	return board
}
