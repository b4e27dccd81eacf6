package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"necromancer/internal/core"
	"necromancer/internal/logger"
)

// DefaultFigmaBaseURL is the Figma REST API root.
const DefaultFigmaBaseURL = "https://api.figma.com/v1"

// FigmaSource lists the design files of a Figma team.
type FigmaSource struct {
	enabled  bool
	token    string
	teamID   string
	maxFiles int
	baseURL  string
	client   *http.Client
	log      zerolog.Logger
}

// NewFigmaSource creates a Figma source. An empty baseURL uses the public API.
func NewFigmaSource(enabled bool, token, teamID string, maxFiles int, baseURL string) *FigmaSource {
	if maxFiles <= 0 {
		maxFiles = 50
	}
	if baseURL == "" {
		baseURL = DefaultFigmaBaseURL
	}
	return &FigmaSource{
		enabled:  enabled,
		token:    token,
		teamID:   teamID,
		maxFiles: maxFiles,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      logger.For("figma"),
	}
}

func (s *FigmaSource) Name() core.Source { return core.SourceFigma }

// Ready needs both a token and a team: Figma has no endpoint listing a
// user's files without one.
func (s *FigmaSource) Ready() error {
	if !s.enabled {
		return fmt.Errorf("%w: disabled", ErrNotConfigured)
	}
	if s.token == "" {
		return fmt.Errorf("%w: figma access token not set", ErrNotConfigured)
	}
	if s.teamID == "" {
		return fmt.Errorf("%w: figma team id not set", ErrNotConfigured)
	}
	return nil
}

// figmaID tolerates ids sent as JSON numbers or strings.
type figmaID string

func (id *figmaID) UnmarshalJSON(b []byte) error {
	*id = figmaID(strings.Trim(string(b), `"`))
	return nil
}

type figmaProject struct {
	ID   figmaID `json:"id"`
	Name string  `json:"name"`
}

type figmaFile struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
	LastModified string `json:"last_modified"`
}

func (s *FigmaSource) Scrape(ctx context.Context) ([]core.Project, error) {
	var team struct {
		Projects []figmaProject `json:"projects"`
	}
	if err := s.get(ctx, "/teams/"+url.PathEscape(s.teamID)+"/projects", &team); err != nil {
		return nil, err
	}

	projects := []core.Project{}
	for _, fp := range team.Projects {
		if len(projects) >= s.maxFiles {
			break
		}
		var files struct {
			Files []figmaFile `json:"files"`
		}
		if err := s.get(ctx, "/projects/"+url.PathEscape(string(fp.ID))+"/files", &files); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Warn().Err(err).Str("project", fp.Name).Msg("Skipping figma project")
			continue
		}
		for _, f := range files.Files {
			if len(projects) >= s.maxFiles {
				break
			}
			projects = append(projects, figmaToProject(f, fp))
		}
	}
	return projects, nil
}

func (s *FigmaSource) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Figma-Token", s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("figma request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("figma %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode figma response: %w", err)
	}
	return nil
}

func figmaToProject(f figmaFile, parent figmaProject) core.Project {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		name = "Untitled Design"
	}
	projectName := parent.Name
	if projectName == "" {
		projectName = "Unknown"
	}

	p := core.Project{
		ID:          f.Key,
		Title:       name,
		Description: "Figma design file from project: " + projectName,
		Tags:        []string{"figma", "design", projectName},
		Source:      core.SourceFigma,
		Date:        driveTime(f.LastModified),
		Metadata: map[string]string{
			"file_key":     f.Key,
			"project_id":   string(parent.ID),
			"project_name": projectName,
		},
	}
	if f.Key != "" {
		p.Links = []string{"https://www.figma.com/file/" + f.Key}
	}
	if f.ThumbnailURL != "" {
		p.Images = []string{f.ThumbnailURL}
	}
	return p
}
