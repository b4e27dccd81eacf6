package pipeline

import (
	"context"
	"time"

	"necromancer/internal/core"
	"necromancer/internal/sources"
)

// Scraper gathers raw records from every configured source. A failing
// source shows up in its report, never as an error.
type Scraper interface {
	ScrapeAll(ctx context.Context) ([]core.Project, []sources.Report)
}

// Generator renders a finished portfolio and returns where it went.
type Generator interface {
	// Generate writes the site. name selects the output directory; empty
	// means a timestamped default.
	Generate(ctx context.Context, portfolio *core.Portfolio, name string) (string, error)
}

// LanguageModel is the external service behind the AI tiers.
type LanguageModel interface {
	// GenerateText returns free text for a prompt
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON returns a JSON document for a prompt, fences stripped
	GenerateJSON(ctx context.Context, prompt string) (string, error)

	// Probe is a cheap availability check bounded by timeout
	Probe(ctx context.Context, timeout time.Duration) error
}
