package sources

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"necromancer/internal/core"
)

// ManualEntry is one hand-written project. The same shape is accepted by the
// HTTP API.
type ManualEntry struct {
	ID          string   `yaml:"id" json:"id,omitempty"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Tags        []string `yaml:"tags" json:"tags,omitempty"`
	Links       []string `yaml:"links" json:"links,omitempty"`
	Images      []string `yaml:"images" json:"images,omitempty"`
	URL         string   `yaml:"url" json:"url,omitempty"`             // single link shorthand
	ImageURL    string   `yaml:"image_url" json:"image_url,omitempty"` // single image shorthand
	Client      string   `yaml:"client" json:"client,omitempty"`
	Date        string   `yaml:"date" json:"date,omitempty"`
}

// ToProject converts the entry into a partial project record.
func (e ManualEntry) ToProject() core.Project {
	p := core.Project{
		ID:          strings.TrimSpace(e.ID),
		Title:       strings.TrimSpace(e.Title),
		Description: strings.TrimSpace(e.Description),
		Tags:        append([]string(nil), e.Tags...),
		Links:       append([]string(nil), e.Links...),
		Images:      append([]string(nil), e.Images...),
		Client:      e.Client,
		Source:      core.SourceManual,
		Date:        parseDate(e.Date),
	}
	if e.URL != "" {
		p.Links = append(p.Links, e.URL)
	}
	if e.ImageURL != "" {
		p.Images = append(p.Images, e.ImageURL)
	}
	if p.Title == "" {
		p.Title = "Untitled Project"
	}
	return p
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006/01/02", "January 2006", "2006-01"}

// parseDate accepts a few common layouts; anything else is the zero time,
// which the pipeline later replaces with the run time.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type manualFile struct {
	Projects []ManualEntry `yaml:"projects"`
}

// ManualSource reads a YAML (or JSON) projects file.
type ManualSource struct {
	enabled bool
	path    string
}

// NewManualSource creates a manual source for path.
func NewManualSource(enabled bool, path string) *ManualSource {
	return &ManualSource{enabled: enabled, path: path}
}

// Name identifies the source.
func (s *ManualSource) Name() core.Source { return core.SourceManual }

// Ready requires the source to be enabled and the file to exist.
func (s *ManualSource) Ready() error {
	if !s.enabled {
		return fmt.Errorf("%w: disabled", ErrNotConfigured)
	}
	if s.path == "" {
		return fmt.Errorf("%w: no projects file set", ErrNotConfigured)
	}
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("%w: projects file %s not found", ErrNotConfigured, s.path)
	}
	return nil
}

// Scrape parses the projects file.
func (s *ManualSource) Scrape(_ context.Context) ([]core.Project, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read projects file: %w", err)
	}
	entries, err := ParseManual(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	projects := make([]core.Project, 0, len(entries))
	for _, e := range entries {
		projects = append(projects, e.ToProject())
	}
	return projects, nil
}

// ParseManual decodes either a document with a top-level "projects" list or
// a bare list of entries.
func ParseManual(data []byte) ([]ManualEntry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		var entries []ManualEntry
		if err := doc.Decode(&entries); err != nil {
			return nil, err
		}
		return entries, nil
	case yaml.MappingNode:
		var file manualFile
		if err := doc.Decode(&file); err != nil {
			return nil, err
		}
		return file.Projects, nil
	}
	return nil, fmt.Errorf("expected a list of projects or a projects: key")
}
