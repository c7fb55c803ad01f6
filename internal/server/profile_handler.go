package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jonathan/career-compass/internal/types"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if user == nil {
		writeError(w, s.logger, &ErrUserNotFound{UserID: userID})
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	var req types.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		validationResponse(w, err)
		return
	}

	user, err := s.store.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if user == nil {
		writeError(w, s.logger, &ErrUserNotFound{UserID: userID})
		return
	}
	jsonResponse(w, http.StatusOK, user)
}

// handleDeleteProfile deletes the account and everything it owns.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteUser(r.Context(), userID); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveRoadmap bookmarks a roadmap on the user's profile. Saving twice is a no-op.
func (s *Server) handleSaveRoadmap(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.session(w, r)
	if !ok {
		return
	}
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		errorResponse(w, http.StatusBadRequest, "roadmap slug is required")
		return
	}
	roadmap := s.catalog.Resolve(slug)

	user, err := s.store.SaveRoadmap(r.Context(), userID, roadmap.Slug)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if user == nil {
		writeError(w, s.logger, &ErrUserNotFound{UserID: userID})
		return
	}
	jsonResponse(w, http.StatusOK, user)
}
