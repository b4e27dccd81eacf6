package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"necromancer/internal/store"
)

const maxListLimit = 100

// handleListPortfolios handles GET /api/portfolios?limit=N
func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotFound, "Portfolio catalog is disabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := s.catalog.ListPortfolios(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list portfolios")
		s.respondError(w, http.StatusInternalServerError, "Failed to load portfolios")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"portfolios": records,
		"total":      len(records),
	})
}

// handleGetPortfolio handles GET /api/portfolios/{id}
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotFound, "Portfolio catalog is disabled")
		return
	}

	record, err := s.catalog.GetPortfolio(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load portfolio")
		s.respondError(w, http.StatusInternalServerError, "Failed to load portfolio")
		return
	}
	s.respondJSON(w, http.StatusOK, record)
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		s.respondError(w, http.StatusNotFound, "Portfolio catalog is disabled")
		return
	}

	stats, err := s.catalog.GetStats(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load catalog stats")
		s.respondError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}
