package pipeline

import (
	"context"
	"errors"
	"fmt"

	"necromancer/internal/core"
)

// QualityGate represents a validation checkpoint before generation
type QualityGate interface {
	// Validate checks the assembled portfolio
	Validate(ctx context.Context, portfolio *core.Portfolio, tiers Tiers) error

	// Name returns the gate name for logging
	Name() string

	// IsBlocking returns whether failure should stop the pipeline
	IsBlocking() bool
}

// QualityGateConfig holds configuration for quality gates
type QualityGateConfig struct {
	MaxFallbackRatio float64 // share of AI-tier records allowed to fall back
	MaxMiscRatio     float64 // share of records allowed in Miscellaneous
}

// DefaultQualityGateConfig returns default configuration
func DefaultQualityGateConfig() QualityGateConfig {
	return QualityGateConfig{
		MaxFallbackRatio: 0.5,
		MaxMiscRatio:     0.75,
	}
}

// DefaultGates returns the gates every run passes through.
func DefaultGates() []QualityGate {
	cfg := DefaultQualityGateConfig()
	return []QualityGate{
		RecordGate{},
		FallbackGate{MaxRatio: cfg.MaxFallbackRatio},
		MiscGate{MaxRatio: cfg.MaxMiscRatio},
	}
}

// ErrGateFailed wraps every gate failure.
var ErrGateFailed = errors.New("quality gate failed")

// RecordGate re-checks every record invariant on the final portfolio.
type RecordGate struct{}

func (RecordGate) Name() string     { return "Record Gate" }
func (RecordGate) IsBlocking() bool { return true }

func (RecordGate) Validate(_ context.Context, portfolio *core.Portfolio, _ Tiers) error {
	seen := make(map[string]bool, len(portfolio.Projects))
	for i := range portfolio.Projects {
		pr := &portfolio.Projects[i]
		if err := pr.Validate(); err != nil {
			return err
		}
		if seen[pr.ID] {
			return core.NewValidationError(pr.ID, "duplicate project id")
		}
		seen[pr.ID] = true
	}
	return nil
}

// FallbackGate warns when an AI tier was selected but most records ended up
// on the deterministic tier, which usually means quota or auth trouble
// after the probe passed.
type FallbackGate struct {
	MaxRatio float64
}

func (FallbackGate) Name() string     { return "Fallback Gate" }
func (FallbackGate) IsBlocking() bool { return false }

func (g FallbackGate) Validate(_ context.Context, portfolio *core.Portfolio, tiers Tiers) error {
	total := len(portfolio.Projects)
	if total == 0 {
		return nil
	}
	var classified, summarized int
	for _, pr := range portfolio.Projects {
		if pr.ClassifiedBy != core.TierAI {
			classified++
		}
		if pr.SummarizedBy != core.TierAI {
			summarized++
		}
	}
	if tiers.Classification == core.TierAI && ratio(classified, total) > g.MaxRatio {
		return fmt.Errorf("%d of %d classifications fell back to rules", classified, total)
	}
	if tiers.Summary == core.TierAI && ratio(summarized, total) > g.MaxRatio {
		return fmt.Errorf("%d of %d summaries fell back to templates", summarized, total)
	}
	return nil
}

// MiscGate warns when the catch-all category dominates.
type MiscGate struct {
	MaxRatio float64
}

func (MiscGate) Name() string     { return "Miscellaneous Gate" }
func (MiscGate) IsBlocking() bool { return false }

func (g MiscGate) Validate(_ context.Context, portfolio *core.Portfolio, _ Tiers) error {
	total := len(portfolio.Projects)
	if total < 4 {
		return nil
	}
	misc := portfolio.CountByCategory()[core.CategoryMiscellaneous]
	if ratio(misc, total) > g.MaxRatio {
		return fmt.Errorf("%d of %d projects are uncategorized; add tags or descriptions", misc, total)
	}
	return nil
}

func ratio(n, total int) float64 {
	return float64(n) / float64(total)
}

// runGates stops at the first blocking failure and logs the rest.
func (p *Pipeline) runGates(ctx context.Context, portfolio *core.Portfolio) error {
	for _, gate := range p.gates {
		err := gate.Validate(ctx, portfolio, p.tiers)
		if err == nil {
			continue
		}
		if gate.IsBlocking() {
			p.log.Error().Err(err).Str("gate", gate.Name()).Msg("Quality gate failed")
			return fmt.Errorf("%w: %s: %w", ErrGateFailed, gate.Name(), err)
		}
		p.log.Warn().Err(err).Str("gate", gate.Name()).Msg("Quality gate warning")
		p.stepf("   ⚠️  %s: %v\n", gate.Name(), err)
	}
	return nil
}
