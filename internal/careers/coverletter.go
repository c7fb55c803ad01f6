package careers

import (
	"context"
	"errors"
	"strings"

	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/ingestion"
	"github.com/jonathan/career-compass/internal/schemas"
	"github.com/jonathan/career-compass/internal/types"
)

// JobDescriber fetches a job posting and returns its description text.
type JobDescriber interface {
	FetchJobDescription(ctx context.Context, url string) (string, *ingestion.Metadata, error)
}

// CoverLetterInput resolves a cover letter request into flow input, fetching the
// job posting when only its URL was given.
func CoverLetterInput(ctx context.Context, jobs JobDescriber, req types.CoverLetterRequest) (types.CoverLetterInput, error) {
	if err := flow.ValidateStruct(req); err != nil {
		var ve *flow.ValidationError
		if errors.As(err, &ve) {
			ve.Flow = FlowCoverLetter
		}
		return types.CoverLetterInput{}, err
	}

	in := types.CoverLetterInput{
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: req.JobDescription,
		UserSkills:     req.UserSkills,
	}
	if strings.TrimSpace(in.JobDescription) != "" {
		return in, nil
	}
	if jobs == nil || req.JobURL == "" {
		return in, &flow.ValidationError{
			Flow:   FlowCoverLetter,
			Fields: []schemas.FieldError{{Field: "jobDescription", Message: "is required"}},
		}
	}

	text, _, err := jobs.FetchJobDescription(ctx, req.JobURL)
	if err != nil {
		return in, &flow.ValidationError{
			Flow:    FlowCoverLetter,
			Message: "could not read the job posting",
			Fields:  []schemas.FieldError{{Field: "jobUrl", Message: "could not be fetched"}},
			Cause:   err,
		}
	}
	in.JobDescription = text
	return in, nil
}
