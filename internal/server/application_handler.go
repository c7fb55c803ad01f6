package server

import (
	"net/http"

	"github.com/jonathan/career-compass/internal/events"
	"github.com/jonathan/career-compass/internal/types"
)

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	apps, err := s.store.ListApplications(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, apps)
}

// handleApplicationBoard groups the user's applications by status.
func (s *Server) handleApplicationBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	apps, err := s.store.ListApplications(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, types.Board(apps))
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	var req types.CreateApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	app := &types.JobApplication{
		UserID:      userID,
		JobTitle:    req.JobTitle,
		CompanyName: req.CompanyName,
		Status:      req.Status,
		DateApplied: req.DateApplied,
		URL:         req.URL,
		Notes:       req.Notes,
	}
	if err := s.store.CreateApplication(r.Context(), app); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.publish(r.Context(), events.New(events.ApplicationCreated, userID, app))
	jsonResponse(w, http.StatusCreated, app)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "application")
	if !ok {
		return
	}
	app, err := s.store.GetApplication(r.Context(), userID, id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if app == nil {
		writeError(w, s.logger, &ErrNotFound{Resource: "application"})
		return
	}
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "application")
	if !ok {
		return
	}
	var req types.UpdateApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	app, err := s.store.UpdateApplication(r.Context(), userID, id, &req)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if app == nil {
		writeError(w, s.logger, &ErrNotFound{Resource: "application"})
		return
	}
	s.publish(r.Context(), events.New(events.ApplicationUpdated, userID, app))
	jsonResponse(w, http.StatusOK, app)
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "application")
	if !ok {
		return
	}
	deleted, err := s.store.DeleteApplication(r.Context(), userID, id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if !deleted {
		writeError(w, s.logger, &ErrNotFound{Resource: "application"})
		return
	}
	s.publish(r.Context(), events.New(events.ApplicationDeleted, userID, map[string]string{"id": id.String()}))
	w.WriteHeader(http.StatusNoContent)
}
