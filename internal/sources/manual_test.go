package sources

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/core"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestManualSource_YAMLDocument(t *testing.T) {
	path := writeFile(t, "projects.yaml", `
projects:
  - title: "  Payments API  "
    description: Rewrote the billing service in Go.
    tags: [go, api]
    url: https://github.com/me/payments
    date: 2024-03-01
    client: Acme
  - description: No title here
`)
	src := NewManualSource(true, path)
	require.NoError(t, src.Ready())

	projects, err := src.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	p := projects[0]
	assert.Equal(t, "Payments API", p.Title)
	assert.Equal(t, []string{"go", "api"}, p.Tags)
	assert.Equal(t, []string{"https://github.com/me/payments"}, p.Links)
	assert.Equal(t, "Acme", p.Client)
	assert.Equal(t, core.SourceManual, p.Source)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), p.Date)

	assert.Equal(t, "Untitled Project", projects[1].Title)
	assert.True(t, projects[1].Date.IsZero())
}

func TestManualSource_BareListAndJSON(t *testing.T) {
	entries, err := ParseManual([]byte("- title: One\n- title: Two\n"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = ParseManual([]byte(`{"projects": [{"title": "From JSON", "tags": ["figma"]}]}`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "From JSON", entries[0].Title)

	entries, err = ParseManual([]byte("   \n"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = ParseManual([]byte("just a string"))
	assert.Error(t, err)
}

func TestManualSource_NotReady(t *testing.T) {
	assert.True(t, IsNotConfigured(NewManualSource(false, "projects.yaml").Ready()))
	assert.True(t, IsNotConfigured(NewManualSource(true, "").Ready()))
	assert.True(t, IsNotConfigured(NewManualSource(true, filepath.Join(t.TempDir(), "missing.yaml")).Ready()))
}

func TestManualSource_MalformedFile(t *testing.T) {
	path := writeFile(t, "projects.yaml", "projects: [unclosed")
	_, err := NewManualSource(true, path).Scrape(context.Background())
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, 2023, parseDate("2023-11-05T10:00:00Z").Year())
	assert.Equal(t, time.June, parseDate("June 2022").Month())
	assert.True(t, parseDate("someday").IsZero())
}
