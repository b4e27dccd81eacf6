package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/config"
	"necromancer/internal/core"
	"necromancer/internal/logger"
	"necromancer/internal/pipeline"
	"necromancer/internal/render"
	"necromancer/internal/store"
)

func testConfig(storage string) *config.Config {
	cfg := &config.Config{}
	cfg.User.Name = "Ada"
	cfg.Classification.RuleFloor = 0.3
	cfg.Classification.RuleCeiling = 0.9
	cfg.Summary.Tone = "professional"
	cfg.Summary.Length = "short"
	cfg.Portfolio.Theme = "modern"
	cfg.Portfolio.ColorScheme = "blue"
	cfg.Portfolio.MaxProjects = 20
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8080
	cfg.Server.StorageDir = storage
	return cfg
}

// newTestServer wires the real pipeline in its deterministic tiers.
func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	logger.SetOutput(io.Discard)

	storage := t.TempDir()
	cfg := testConfig(storage)
	gen, err := render.NewGenerator(storage)
	require.NoError(t, err)
	p, err := pipeline.NewBuilder(cfg).WithoutAI().WithGenerator(gen).Build(context.Background())
	require.NoError(t, err)
	catalog, err := store.NewStore(storage)
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })
	return New(p, cfg, catalog), storage
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "rules", resp.Tiers["classification"])
	assert.Equal(t, "template", resp.Tiers["summary"])
}

func TestCategoriesAndThemes(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decodeBody[map[string][]CategoryResponse](t, rec)["categories"]
	require.Len(t, cats, 4)
	assert.Equal(t, "writing", cats[0].ID)
	assert.Equal(t, "Miscellaneous Unicorn Work", cats[3].Name)
	assert.Equal(t, "miscellaneous_unicorn_work", cats[3].Slug)

	rec = do(t, s, http.MethodGet, "/api/themes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	themes := decodeBody[map[string][]string](t, rec)
	assert.Equal(t, []string{"modern", "minimal"}, themes["themes"])
	assert.Equal(t, []string{"blue", "green", "purple"}, themes["color_schemes"])
}

func TestClassify(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"owner": "Ada", "projects": [
		{"title": "Automated Test Suite Builder", "description": "wrote a CI pipeline in Python", "tags": ["python", "ci"]},
		{"title": ""}
	]}`
	rec := do(t, s, http.MethodPost, "/api/classify", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ClassifyResponse](t, rec)
	require.Len(t, resp.Projects, 2)

	first := resp.Projects[0]
	assert.Equal(t, core.CategoryCode, first.Category)
	assert.Equal(t, core.TierRules, first.ClassifiedBy)
	assert.Equal(t, core.TierTemplate, first.SummarizedBy)
	assert.NotEmpty(t, first.Summary)
	assert.NotEmpty(t, first.ID)

	assert.Equal(t, "Untitled Project", resp.Projects[1].Title)
	assert.True(t, resp.Projects[1].Category.Valid())
}

func TestClassify_RejectsBadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/classify", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "Projects is required")

	rec = do(t, s, http.MethodPost, "/api/classify", `{"projects": []}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp = decodeBody[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "Projects must contain at least 1 item(s)")

	rec = do(t, s, http.MethodPost, "/api/classify", `{"projects": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerate_PreviewAndDownload(t *testing.T) {
	s, storage := newTestServer(t)

	body := `{
		"owner": {"name": "Ada Lovelace", "email": "ada@example.com", "title": "Engineer"},
		"projects": [
			{"title": "Payments API", "description": "Backend service in Go", "tags": ["go", "api"], "url": "https://github.com/ada/payments"},
			{"title": "Quarterly newsletter", "description": "Wrote and edited the company blog"}
		],
		"theme": "minimal",
		"color_scheme": "green"
	}`
	rec := do(t, s, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[GenerateResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.ProjectCount)
	assert.Equal(t, 1, resp.Categories["Code"])
	assert.Equal(t, "/api/preview/"+resp.PortfolioID+"/", resp.PreviewURL)
	assert.FileExists(t, filepath.Join(storage, resp.PortfolioID, "index.html"))

	rec = do(t, s, http.MethodGet, "/api/preview/"+resp.PortfolioID, "")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/api/preview/"+resp.PortfolioID+"/", rec.Header().Get("Location"))

	rec = do(t, s, http.MethodGet, resp.PreviewURL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
	assert.Contains(t, rec.Body.String(), "theme-minimal scheme-green")

	rec = do(t, s, http.MethodGet, resp.PreviewURL+"assets/style.css", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, resp.DownloadURL, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "portfolio_"+resp.PortfolioID+".zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "index.html")
	assert.Contains(t, names, "assets/style.css")
}

func TestCatalog(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"owner": {"name": "Ada", "email": "ada@example.com"}, "projects": [
		{"title": "Payments API", "description": "Backend service in Go"},
		{"title": "Logo redesign", "description": "New brand mockups in Figma"}
	]}`
	rec := do(t, s, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody[GenerateResponse](t, rec).PortfolioID

	rec = do(t, s, http.MethodGet, "/api/portfolios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Portfolios []store.Record `json:"portfolios"`
		Total      int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, id, list.Portfolios[0].ID)
	assert.Equal(t, 2, list.Portfolios[0].ProjectCount)

	rec = do(t, s, http.MethodGet, "/api/portfolios/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	record := decodeBody[store.Record](t, rec)
	require.Len(t, record.Projects, 2)
	assert.Equal(t, "Payments API", record.Projects[0].Title)
	assert.Equal(t, "Code", record.Projects[0].Category)

	rec = do(t, s, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[store.Stats](t, rec).Projects)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/portfolios/missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/portfolios?limit=zero", "").Code)
}

func TestCatalogDisabled(t *testing.T) {
	logger.SetOutput(io.Discard)
	s := New(&fakeRunner{}, testConfig(t.TempDir()), nil)

	rec := do(t, s, http.MethodGet, "/api/portfolios", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerate_ValidatesOwner(t *testing.T) {
	s, storage := newTestServer(t)

	body := `{"owner": {"name": "", "email": "not-an-email"}, "projects": [{"title": "x"}]}`
	rec := do(t, s, http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeBody[ErrorResponse](t, rec)
	assert.Contains(t, resp.Details, "Owner.Name is required")
	assert.Contains(t, resp.Details, "Owner.Email must be a valid email address")

	entries, err := os.ReadDir(storage)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.IsDir(), "unexpected site directory %s", e.Name())
	}
}

func TestPreview_UnknownPortfolio(t *testing.T) {
	s, storage := newTestServer(t)
	require.NoError(t, os.MkdirAll(filepath.Join(storage, "not-a-uuid"), 0o755))

	for _, path := range []string{
		"/api/preview/not-a-uuid/",
		"/api/preview/6f1c2a4e-8d3b-4c5a-9e7f-0a1b2c3d4e5f/",
		"/api/download/6F1C2A4E-8D3B-4C5A-9E7F-0A1B2C3D4E5F",
	} {
		rec := do(t, s, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestUnknownEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", decodeBody[ErrorResponse](t, rec).Error)
}

// fakeRunner records the options of the last run.
type fakeRunner struct {
	opts pipeline.RunOptions
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, opts pipeline.RunOptions) (*pipeline.RunResult, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.RunResult{
		Portfolio:  &core.Portfolio{Owner: opts.Owner, Projects: opts.Projects, Options: *opts.Options},
		OutputPath: "/tmp/" + opts.OutputName,
	}, nil
}

func (f *fakeRunner) Process(ctx context.Context, records []core.Project, owner string) ([]core.Project, error) {
	return records, f.err
}

func (f *fakeRunner) Tiers() pipeline.Tiers {
	return pipeline.Tiers{Classification: core.TierAI, Summary: core.TierAI}
}

func TestGenerate_WatermarkNeedsFeature(t *testing.T) {
	logger.SetOutput(io.Discard)
	body := `{"owner": {"name": "Ada", "email": "ada@example.com"}, "projects": [{"title": "x"}], "show_watermark": false}`

	runner := &fakeRunner{}
	cfg := testConfig(t.TempDir())
	rec := do(t, New(runner, cfg, nil), http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, runner.opts.Options.ShowWatermark)
	assert.True(t, runner.opts.SkipSources)
	assert.NotEmpty(t, runner.opts.OutputName)

	cfg.Features.RemoveWatermark = true
	rec = do(t, New(runner, cfg, nil), http.MethodPost, "/api/generate", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, runner.opts.Options.ShowWatermark)
}

func TestGenerate_ErrorStatus(t *testing.T) {
	logger.SetOutput(io.Discard)
	body := `{"owner": {"name": "Ada", "email": "ada@example.com"}, "projects": [{"title": "x"}]}`

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"generation", core.NewGenerationError("disk full", nil), http.StatusInternalServerError},
		{"validation", core.NewValidationError("p-1", "summary is empty"), http.StatusUnprocessableEntity},
		{"no projects", core.ErrNoProjects, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&fakeRunner{err: tt.err}, testConfig(t.TempDir()), nil)
			rec := do(t, s, http.MethodPost, "/api/generate", body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
