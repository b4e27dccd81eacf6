package server

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"necromancer/internal/core"
	"necromancer/internal/pipeline"
	"necromancer/internal/sources"
)

// ClassifyRequest is the body of POST /api/classify
type ClassifyRequest struct {
	Owner    string                `json:"owner,omitempty"`
	Projects []sources.ManualEntry `json:"projects" validate:"required,min=1,max=100"`
}

// ClassifyResponse carries the processed records, in request order
type ClassifyResponse struct {
	Projects []core.Project    `json:"projects"`
	Tiers    map[string]string `json:"tiers"`
}

// GenerateRequest is the body of POST /api/generate
type GenerateRequest struct {
	Owner         core.Owner            `json:"owner"`
	Projects      []sources.ManualEntry `json:"projects" validate:"required,min=1,max=500"`
	Theme         string                `json:"theme,omitempty" validate:"omitempty,oneof=modern minimal"`
	ColorScheme   string                `json:"color_scheme,omitempty" validate:"omitempty,oneof=blue green purple"`
	ShowWatermark *bool                 `json:"show_watermark,omitempty"`
}

// GenerateResponse describes a generated portfolio
type GenerateResponse struct {
	Success      bool           `json:"success"`
	PortfolioID  string         `json:"portfolio_id"`
	PreviewURL   string         `json:"preview_url"`
	DownloadURL  string         `json:"download_url"`
	ProjectCount int            `json:"project_count"`
	Dropped      int            `json:"dropped"`
	Categories   map[string]int `json:"categories"`
	Message      string         `json:"message"`
}

// handleClassify handles POST /api/classify
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	processed, err := s.runner.Process(r.Context(), toProjects(req.Projects), req.Owner)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to classify projects")
		s.respondError(w, statusFor(err), err.Error())
		return
	}

	tiers := s.runner.Tiers()
	s.respondJSON(w, http.StatusOK, ClassifyResponse{
		Projects: processed,
		Tiers: map[string]string{
			"classification": string(tiers.Classification),
			"summary":        string(tiers.Summary),
		},
	})
}

// handleGenerate handles POST /api/generate
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !s.decode(w, r, &req) {
		return
	}

	opts := s.defaults
	if req.Theme != "" {
		opts.Theme = req.Theme
	}
	if req.ColorScheme != "" {
		opts.ColorScheme = req.ColorScheme
	}
	// A request can add the watermark but only the paid feature removes it.
	if req.ShowWatermark != nil {
		opts.ShowWatermark = *req.ShowWatermark || s.defaults.ShowWatermark
	}

	id := uuid.NewString()
	result, err := s.runner.Run(r.Context(), pipeline.RunOptions{
		Owner:       req.Owner,
		Options:     &opts,
		Projects:    toProjects(req.Projects),
		OutputName:  id,
		SkipSources: true,
	})
	if err != nil {
		s.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to generate portfolio")
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	if result.OutputPath == "" {
		s.respondError(w, http.StatusInternalServerError, "Portfolio was not written")
		return
	}

	counts := make(map[string]int)
	for c, n := range result.Portfolio.CountByCategory() {
		if n > 0 {
			counts[string(c)] = n
		}
	}
	if s.catalog != nil {
		if err := s.catalog.SavePortfolio(r.Context(), id, result.OutputPath, result.Portfolio, result.Stats.Dropped); err != nil {
			s.log.Warn().Err(err).Str("portfolio_id", id).Msg("Failed to record portfolio in catalog")
		}
	}
	s.log.Info().
		Str("portfolio_id", id).
		Int("projects", len(result.Portfolio.Projects)).
		Int("dropped", result.Stats.Dropped).
		Msg("Portfolio generated")

	s.respondJSON(w, http.StatusCreated, GenerateResponse{
		Success:      true,
		PortfolioID:  id,
		PreviewURL:   "/api/preview/" + id + "/",
		DownloadURL:  "/api/download/" + id,
		ProjectCount: len(result.Portfolio.Projects),
		Dropped:      result.Stats.Dropped,
		Categories:   counts,
		Message:      "Portfolio generated successfully",
	})
}

// handlePreviewRedirect adds the trailing slash so relative links resolve.
func (s *Server) handlePreviewRedirect(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.siteDir(chi.URLParam(r, "id")); !ok {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
}

// handlePreview serves the files of a generated site
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dir, ok := s.siteDir(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}
	http.StripPrefix("/api/preview/"+id, http.FileServer(http.Dir(dir))).ServeHTTP(w, r)
}

// handleDownload handles GET /api/download/{id}
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dir, ok := s.siteDir(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Portfolio not found")
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := zw.AddFS(os.DirFS(dir)); err != nil {
		s.log.Error().Err(err).Str("portfolio_id", id).Msg("Failed to archive portfolio")
		s.respondError(w, http.StatusInternalServerError, "Failed to archive portfolio")
		return
	}
	if err := zw.Close(); err != nil {
		s.respondError(w, http.StatusInternalServerError, "Failed to archive portfolio")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "portfolio_"+id+".zip"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn().Err(err).Str("portfolio_id", id).Msg("Download interrupted")
	}
}

// siteDir resolves a portfolio id to its directory. Only canonical UUIDs
// are accepted, so the id can never climb out of the storage dir.
func (s *Server) siteDir(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != id {
		return "", false
	}
	dir := filepath.Join(s.config.StorageDir, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

func toProjects(entries []sources.ManualEntry) []core.Project {
	out := make([]core.Project, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToProject())
	}
	return out
}
