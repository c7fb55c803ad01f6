package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/types"
)

const roadmapSearchLimit = 20

// handleSearchRoadmaps lists catalog roadmaps, filtered by the "q" parameter.
func (s *Server) handleSearchRoadmaps(w http.ResponseWriter, r *http.Request) {
	results, err := s.catalog.Search(r.URL.Query().Get("q"), roadmapSearchLimit)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, results)
}

type generatedRoadmap struct {
	Roadmap careers.Roadmap `json:"roadmap"`
	Plan    json.RawMessage `json:"plan"`
}

// handleGenerateRoadmap generates a learning roadmap for a catalog career. Slugs
// outside the catalog are planned from the title derived from the slug.
func (s *Server) handleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
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

	plan, err := s.submit(r.Context(), userID, careers.FlowCareerRoadmap, types.CareerRoadmapInput{Career: roadmap.Title})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	jsonResponse(w, http.StatusOK, generatedRoadmap{Roadmap: roadmap, Plan: plan})
}
