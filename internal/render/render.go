// Package render writes a portfolio out as a static multi-page website.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"hash/fnv"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"necromancer/internal/categorization"
	"necromancer/internal/core"
	"necromancer/internal/logger"
)

//go:embed templates/*.html templates/style.css
var templateFS embed.FS

// Palette holds the colors of a color scheme.
type Palette struct {
	Accent     string
	AccentSoft string
}

var palettes = map[string]Palette{
	"blue":   {Accent: "#2563eb", AccentSoft: "#dbeafe"},
	"green":  {Accent: "#059669", AccentSoft: "#d1fae5"},
	"purple": {Accent: "#7c3aed", AccentSoft: "#ede9fe"},
}

type themeStyle struct {
	Font       string
	Radius     string
	Background string
	Shadows    bool
}

var themes = map[string]themeStyle{
	"modern":  {Font: "'Inter', system-ui, -apple-system, sans-serif", Radius: "14px", Background: "#f8fafc", Shadows: true},
	"minimal": {Font: "Georgia, 'Times New Roman', serif", Radius: "2px", Background: "#ffffff"},
}

// Generator renders portfolios under a root output directory. It is safe
// for concurrent use; each call writes its own directory.
type Generator struct {
	outputDir string
	pages     map[string]*template.Template
	css       *texttemplate.Template
	md        goldmark.Markdown
	now       func() time.Time
	log       zerolog.Logger
}

// NewGenerator parses the embedded templates.
func NewGenerator(outputDir string) (*Generator, error) {
	if outputDir == "" {
		outputDir = "generated_portfolios"
	}

	funcs := template.FuncMap{
		"formatDate": formatDate,
		"domain":     extractDomain,
		"sourceName": sourceName,
	}

	pages := make(map[string]*template.Template)
	for _, page := range []string{"index.html", "category.html", "project.html"} {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/card.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		pages[page] = tmpl
	}

	css, err := texttemplate.ParseFS(templateFS, "templates/style.css")
	if err != nil {
		return nil, fmt.Errorf("failed to parse stylesheet: %w", err)
	}

	return &Generator{
		outputDir: outputDir,
		pages:     pages,
		css:       css,
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		now:       time.Now,
		log:       logger.For("render"),
	}, nil
}

// OutputDir returns the root directory sites are written under.
func (g *Generator) OutputDir() string {
	return g.outputDir
}

// Generate writes the site into outputDir/name, or
// outputDir/portfolio_YYYYMMDD_HHMMSS when name is empty, and returns that
// directory.
func (g *Generator) Generate(ctx context.Context, portfolio *core.Portfolio, name string) (string, error) {
	if portfolio == nil {
		return "", fmt.Errorf("portfolio is nil")
	}
	if name == "" {
		name = "portfolio_" + g.now().Format("20060102_150405")
	}
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return "", fmt.Errorf("invalid output name %q", name)
	}

	dir := filepath.Join(g.outputDir, name)
	for _, sub := range []string{"", "projects", "assets"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	site := g.buildSite(portfolio)

	if err := g.writeStylesheet(dir, portfolio.Options); err != nil {
		return "", err
	}
	if err := g.writePage(dir, "index.html", "index.html", site.page("", nil, site.projects(""))); err != nil {
		return "", err
	}

	for _, cat := range site.categories {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		c := cat
		if err := g.writePage(dir, cat.File, "category.html", site.page(cat.Slug, &c, site.projectsIn(cat.Category, ""))); err != nil {
			return "", err
		}
	}

	for _, pv := range site.projects("../") {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		data := site.page("", nil, nil)
		data.Root = "../"
		p := pv
		data.Project = &p
		data.ActiveSlug = pv.CategorySlug
		if pv.Summary != "" {
			data.MetaDescription = pv.Summary
		}
		if err := g.writePage(dir, pv.File, "project.html", data); err != nil {
			return "", err
		}
	}

	g.log.Info().
		Str("path", dir).
		Int("projects", len(portfolio.Projects)).
		Int("categories", len(site.categories)).
		Msg("Portfolio generated")
	return dir, nil
}

func (g *Generator) writePage(dir, file, page string, data *pageData) error {
	var buf bytes.Buffer
	if err := g.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render %s: %w", file, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

type stylesheet struct {
	Accent     string
	AccentSoft string
	Font       string
	Radius     string
	Background string
	Shadows    bool
}

func (g *Generator) writeStylesheet(dir string, opts core.PresentationOptions) error {
	palette, ok := palettes[opts.ColorScheme]
	if !ok {
		palette = palettes["blue"]
	}
	theme, ok := themes[opts.Theme]
	if !ok {
		theme = themes["modern"]
	}

	var buf bytes.Buffer
	if err := g.css.Execute(&buf, stylesheet{
		Accent:     palette.Accent,
		AccentSoft: palette.AccentSoft,
		Font:       theme.Font,
		Radius:     theme.Radius,
		Background: theme.Background,
		Shadows:    theme.Shadows,
	}); err != nil {
		return fmt.Errorf("failed to render stylesheet: %w", err)
	}
	path := filepath.Join(dir, "assets", "style.css")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// site is the precomputed view of one portfolio.
type site struct {
	portfolio  *core.Portfolio
	categories []categoryView
	views      []projectView
	year       int
}

type categoryView struct {
	Category    core.Category
	Name        string
	Slug        string
	Icon        string
	Description string
	File        string
	Count       int
}

type projectView struct {
	core.Project
	DescriptionHTML template.HTML
	File            string
	Root            string
	Thumbnail       string
	CategoryName    string
	CategoryIcon    string
	CategorySlug    string
	CategoryFile    string
}

type pageData struct {
	Owner           core.Owner
	Theme           string
	ColorScheme     string
	Categories      []categoryView
	Category        *categoryView
	Projects        []projectView
	Project         *projectView
	ActiveSlug      string
	Root            string
	Watermark       bool
	Year            int
	MetaDescription string
	CanonicalURL    string
}

func (g *Generator) buildSite(portfolio *core.Portfolio) *site {
	s := &site{portfolio: portfolio, year: g.now().Year()}

	counts := portfolio.CountByCategory()
	for _, c := range core.AllCategories() {
		if counts[c] == 0 {
			continue
		}
		info := categorization.InfoFor(c)
		s.categories = append(s.categories, categoryView{
			Category:    c,
			Name:        c.DisplayName(),
			Slug:        c.Slug(),
			Icon:        info.Icon,
			Description: info.Description,
			File:        c.Slug() + ".html",
			Count:       counts[c],
		})
	}

	for _, p := range portfolio.Projects {
		info := categorization.InfoFor(p.Category)
		pv := projectView{
			Project:         p,
			DescriptionHTML: g.markdown(p.Description),
			File:            ProjectFile(p.ID),
			CategoryName:    p.Category.DisplayName(),
			CategoryIcon:    info.Icon,
			CategorySlug:    p.Category.Slug(),
			CategoryFile:    p.Category.Slug() + ".html",
		}
		if len(p.Images) > 0 {
			pv.Thumbnail = p.Images[0]
		}
		s.views = append(s.views, pv)
	}
	return s
}

// projects returns the project views with links relative to root.
func (s *site) projects(root string) []projectView {
	out := make([]projectView, len(s.views))
	for i, pv := range s.views {
		pv.Root = root
		out[i] = pv
	}
	return out
}

func (s *site) projectsIn(c core.Category, root string) []projectView {
	var out []projectView
	for _, pv := range s.projects(root) {
		if pv.Category == c {
			out = append(out, pv)
		}
	}
	return out
}

func (s *site) page(active string, cat *categoryView, projects []projectView) *pageData {
	p := s.portfolio
	data := &pageData{
		Owner:       p.Owner,
		Theme:       p.Options.Theme,
		ColorScheme: p.Options.ColorScheme,
		Categories:  s.categories,
		Category:    cat,
		Projects:    projects,
		ActiveSlug:  active,
		Watermark:   p.Options.ShowWatermark,
		Year:        s.year,
	}
	data.MetaDescription = fmt.Sprintf("Portfolio of %s", p.Owner.Name)
	if p.Owner.Title != "" {
		data.MetaDescription += ", " + p.Owner.Title
	}
	if p.Options.CustomDomain != "" {
		data.CanonicalURL = "https://" + strings.TrimSuffix(strings.TrimPrefix(p.Options.CustomDomain, "https://"), "/") + "/"
	}
	return data
}

// markdown renders a description. goldmark escapes raw HTML by default, so
// scraped content cannot inject markup.
func (g *Generator) markdown(text string) template.HTML {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ProjectFile is the site-relative path of a project's page. Ids that need
// rewriting get a hash suffix so two ids never share a page.
func ProjectFile(id string) string {
	name := unsafeFileChars.ReplaceAllString(id, "_")
	if name != id {
		h := fnv.New32a()
		_, _ = h.Write([]byte(id))
		name = fmt.Sprintf("%s_%08x", name, h.Sum32())
	}
	return "projects/project_" + name + ".html"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

// extractDomain shows links by host name.
func extractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func sourceName(s core.Source) string {
	switch s {
	case core.SourceDrive:
		return "Google Drive"
	case core.SourceEmail:
		return "email"
	case core.SourceSlack:
		return "Slack"
	case core.SourceFigma:
		return "Figma"
	case core.SourceScreenshot:
		return "a screenshot"
	}
	return "manual entry"
}
