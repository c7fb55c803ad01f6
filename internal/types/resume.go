package types

import (
	"time"

	"github.com/google/uuid"
)

// ResumeReview is a stored resume upload together with the review it received.
type ResumeReview struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	FileURL    string    `json:"file_url"`
	FileName   string    `json:"file_name"`
	MIMEType   string    `json:"mime_type"`
	Feedback   string    `json:"feedback"`
	IsFixable  bool      `json:"is_fixable"`
	UploadedAt time.Time `json:"uploaded_at"`
}
