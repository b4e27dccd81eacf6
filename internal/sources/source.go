// Package sources harvests raw project evidence from the places work tends
// to pile up: a hand-written projects file, Gmail, Google Drive, Slack,
// Figma and a local screenshot folder.
package sources

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"necromancer/internal/core"
)

// ErrNotConfigured marks a source that is disabled or missing credentials.
// Such sources are skipped rather than failed.
var ErrNotConfigured = errors.New("source not configured")

// Source produces partial project records: title, description, tags, links,
// images, source and date. Category and summary are left for the pipeline.
type Source interface {
	Name() core.Source
	// Ready returns nil when the source can run, or an error wrapping
	// ErrNotConfigured explaining why it will be skipped.
	Ready() error
	// Scrape returns the records found. No results is an empty slice, not
	// an error.
	Scrape(ctx context.Context) ([]core.Project, error)
}

// projectKeywords flag text that is probably about a piece of work.
var projectKeywords = []string{
	"project", "portfolio", "work", "design", "code", "article", "website",
	"app", "development", "completed", "finished", "delivered", "client",
	"freelance", "proposal", "mockup", "prototype", "final", "draft",
	"launched", "shipped", "released", "built", "created", "designed",
	"developed", "implemented",
}

// looksLikeProject reports whether text mentions any project keyword.
func looksLikeProject(text string) bool {
	text = strings.ToLower(text)
	for _, kw := range projectKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most max runes, ending with "..." when cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
