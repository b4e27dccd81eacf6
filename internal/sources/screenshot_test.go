package sources

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/core"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func TestScreenshotSource_Scrape(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "designs", "dashboard_redesign.png"), 64, 48)
	writePNG(t, filepath.Join(dir, "Screenshot 2024-01-02 at 10.15.32.png"), 8, 8)
	// Wrong content behind an image extension.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.png"), []byte("plain text, not an image"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hello"), 0o644))

	src := NewScreenshotSource(true, dir, 0)
	require.NoError(t, src.Ready())

	projects, err := src.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, projects, 2)

	byTitle := map[string]core.Project{}
	for _, p := range projects {
		byTitle[p.Title] = p
	}

	p, ok := byTitle["Dashboard Redesign"]
	require.True(t, ok, "titles: %v", byTitle)
	assert.Equal(t, "Screenshot captured from designs (64x48)", p.Description)
	assert.Equal(t, []string{"screenshot", "png"}, p.Tags)
	assert.Equal(t, core.SourceScreenshot, p.Source)
	assert.True(t, filepath.IsAbs(p.Images[0]))
	assert.Equal(t, "image/png", p.Metadata["mime_type"])

	_, ok = byTitle["Screenshot Project"]
	assert.True(t, ok)
}

func TestScreenshotSource_MaxFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, filepath.Join(dir, name), 2, 2)
	}
	projects, err := NewScreenshotSource(true, dir, 2).Scrape(context.Background())
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestScreenshotSource_MissingFolder(t *testing.T) {
	src := NewScreenshotSource(true, filepath.Join(t.TempDir(), "nope"), 0)
	assert.True(t, IsNotConfigured(src.Ready()))
}

func TestScreenshotTitle(t *testing.T) {
	tests := map[string]string{
		"mobile-app_login":                     "Mobile App Login",
		"Screen Shot 2023-09-12 at 9.41.07 PM": "Screenshot Project",
		"20240101_120000":                      "Screenshot Project",
		"landing page v2 screenshot":           "Landing Page V2",
	}
	for in, want := range tests {
		assert.Equal(t, want, ScreenshotTitle(in), in)
	}
}
