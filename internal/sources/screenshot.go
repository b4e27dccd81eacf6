package sources

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"necromancer/internal/core"
)

var screenshotExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

var (
	datedScreenshot = regexp.MustCompile(`(?i)screen\s*shot\s*\d{4}\s*\d{2}\s*\d{2}`)
	screenshotWord  = regexp.MustCompile(`(?i)screen\s?shot`)
	timestampRun    = regexp.MustCompile(`\d{8}\s*\d{6}`)
	// macOS: "at 10.15.32" after the date.
	clockTime = regexp.MustCompile(`(?i)\bat\s+\d{1,2}[.:]\d{2}[.:]\d{2}(\s*[ap]m)?`)
)

var titleCaser = cases.Title(language.English)

// ScreenshotSource turns image files in a folder tree into records.
type ScreenshotSource struct {
	enabled  bool
	folder   string
	maxFiles int
}

// NewScreenshotSource creates a source over folder. maxFiles of zero means no
// limit.
func NewScreenshotSource(enabled bool, folder string, maxFiles int) *ScreenshotSource {
	return &ScreenshotSource{enabled: enabled, folder: folder, maxFiles: maxFiles}
}

func (s *ScreenshotSource) Name() core.Source { return core.SourceScreenshot }

func (s *ScreenshotSource) Ready() error {
	if !s.enabled {
		return fmt.Errorf("%w: disabled", ErrNotConfigured)
	}
	if s.folder == "" {
		return fmt.Errorf("%w: screenshot folder not set", ErrNotConfigured)
	}
	info, err := os.Stat(s.folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: screenshot folder %s not found", ErrNotConfigured, s.folder)
	}
	return nil
}

func (s *ScreenshotSource) Scrape(ctx context.Context) ([]core.Project, error) {
	projects := []core.Project{}
	err := filepath.WalkDir(s.folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !screenshotExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if s.maxFiles > 0 && len(projects) >= s.maxFiles {
			return filepath.SkipAll
		}
		if p, ok := screenshotToProject(path, d); ok {
			projects = append(projects, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.folder, err)
	}
	return projects, nil
}

func screenshotToProject(path string, d fs.DirEntry) (core.Project, bool) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		return core.Project{}, false
	}
	info, err := d.Info()
	if err != nil {
		return core.Project{}, false
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	description := "Screenshot captured from " + filepath.Base(filepath.Dir(abs))
	meta := map[string]string{
		"file_path": path,
		"file_size": strconv.FormatInt(info.Size(), 10),
		"mime_type": mtype.String(),
	}
	if w, h, ok := imageSize(path); ok {
		description += fmt.Sprintf(" (%dx%d)", w, h)
		meta["dimensions"] = fmt.Sprintf("%dx%d", w, h)
	}

	return core.Project{
		Title:       ScreenshotTitle(stem),
		Description: description,
		Tags:        []string{"screenshot", ext},
		Images:      []string{abs},
		Source:      core.SourceScreenshot,
		Date:        info.ModTime().UTC(),
		Metadata:    meta,
	}, true
}

// imageSize reads only the image header. Formats without a registered
// decoder report no size.
func imageSize(path string) (int, int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// ScreenshotTitle derives a readable title from a file name stem, dropping
// the "Screenshot 2024-01-02 at ..." noise operating systems add.
func ScreenshotTitle(stem string) string {
	title := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	title = datedScreenshot.ReplaceAllString(title, "")
	title = screenshotWord.ReplaceAllString(title, "")
	title = timestampRun.ReplaceAllString(title, "")
	title = clockTime.ReplaceAllString(title, "")
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "Screenshot Project"
	}
	return truncate(titleCaser.String(title), 60)
}
