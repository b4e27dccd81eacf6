package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"necromancer/internal/categorization"
	"necromancer/internal/config"
	"necromancer/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// HealthResponse is returned by GET /api/health
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Tiers     map[string]string `json:"tiers"`
}

// CategoryResponse describes one category
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	tiers := s.runner.Tiers()
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: s.now().UTC(),
		Tiers: map[string]string{
			"classification": string(tiers.Classification),
			"summary":        string(tiers.Summary),
		},
	})
}

// handleCategories handles GET /api/categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	infos := categorization.DefaultCategories()
	out := make([]CategoryResponse, 0, len(infos))
	for _, info := range infos {
		out = append(out, CategoryResponse{
			ID:          strings.ToLower(string(info.Category)),
			Name:        info.Category.DisplayName(),
			Slug:        info.Category.Slug(),
			Icon:        info.Icon,
			Description: info.Description,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"categories": out})
}

// handleThemes handles GET /api/themes
func (s *Server) handleThemes(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"themes":        config.Themes(),
		"color_schemes": config.ColorSchemes(),
	})
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has already been written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body: "+err.Error())
		return false
	}

	err := s.validate.Struct(dst)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe))
	}
	s.respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request", Details: details})
	return false
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNoProjects), core.Is(err, core.ErrCodeValidation):
		return http.StatusUnprocessableEntity
	case core.Is(err, core.ErrCodeConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
