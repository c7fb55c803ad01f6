package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/events"
	"github.com/jonathan/career-compass/internal/flow"
	"github.com/jonathan/career-compass/internal/ingestion"
	"github.com/jonathan/career-compass/internal/storage"
	"github.com/jonathan/career-compass/internal/types"
)

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	reviews, err := s.store.ListResumeReviews(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, reviews)
}

// handleUploadResume stores an uploaded resume, reviews it and records the review.
// The document arrives as the multipart field "file".
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxResumeBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, s.logger, storage.ErrTooLarge)
			return
		}
		errorResponse(w, http.StatusBadRequest, "a resume file is required in the \"file\" field")
		return
	}
	defer file.Close()

	data, err := ingestion.ReadAll(file, storage.MaxResumeBytes)
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", storage.ErrTooLarge, err))
		return
	}
	if len(data) == 0 {
		errorResponse(w, http.StatusBadRequest, "the resume file is empty")
		return
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = ingestion.MIMEFromFilename(header.Filename)
	}

	key := storage.ResumeKey(userID, header.Filename)
	if err := s.blobs.Put(r.Context(), key, mime, data); err != nil {
		writeError(w, s.logger, err)
		return
	}

	raw, err := s.submit(r.Context(), userID, careers.FlowResumeTuning, types.ResumeInput{
		ResumeDataURI: ingestion.EncodeDataURI(mime, data),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var out types.ResumeTuningOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		writeError(w, s.logger, &flow.MalformedOutputError{Flow: careers.FlowResumeTuning, Raw: string(raw), Cause: err})
		return
	}

	review := &types.ResumeReview{
		UserID:    userID,
		FileURL:   key,
		FileName:  header.Filename,
		MIMEType:  mime,
		Feedback:  out.Feedback,
		IsFixable: out.IsFixable,
	}
	if err := s.store.CreateResumeReview(r.Context(), review); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.publish(r.Context(), events.New(events.ResumeReviewed, userID, review))
	jsonResponse(w, http.StatusCreated, review)
}

// handleCorrectResume restructures a stored resume that its review marked fixable.
func (s *Server) handleCorrectResume(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "resume review")
	if !ok {
		return
	}

	review, err := s.store.GetResumeReview(r.Context(), userID, id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if review == nil {
		writeError(w, s.logger, &ErrNotFound{Resource: "resume review"})
		return
	}
	if !review.IsFixable {
		errorResponse(w, http.StatusConflict, "this resume was not marked as automatically fixable")
		return
	}

	data, err := s.blobs.Get(r.Context(), review.FileURL)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	out, err := s.submit(r.Context(), userID, careers.FlowResumeCorrection, types.ResumeInput{
		ResumeDataURI: ingestion.EncodeDataURI(review.MIMEType, data),
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, out)
}
