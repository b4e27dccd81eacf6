package pipeline

import (
	"context"
	"fmt"
	"io"

	"necromancer/internal/cache"
	"necromancer/internal/categorization"
	"necromancer/internal/config"
	"necromancer/internal/core"
	"necromancer/internal/llm"
	"necromancer/internal/logger"
	"necromancer/internal/summarize"
)

// Tiers is the per-run tier decision.
type Tiers struct {
	Classification core.Tier `json:"classification"`
	Summary        core.Tier `json:"summary"`
	Reason         string    `json:"reason,omitempty"` // why AI is off, if it is
}

// AI reports whether either tier uses the language model.
func (t Tiers) AI() bool {
	return t.Classification == core.TierAI || t.Summary == core.TierAI
}

// SelectTiers decides once per run which tiers to use. AI tiers need an API
// key, their enable flag and a model that answers the probe.
func SelectTiers(ctx context.Context, cfg *config.Config, model LanguageModel) Tiers {
	tiers := Tiers{Classification: core.TierRules, Summary: core.TierTemplate}

	switch {
	case !cfg.Classification.AIEnabled && !cfg.Summary.AIEnabled:
		tiers.Reason = "AI tiers disabled"
	case !cfg.HasAICredentials():
		tiers.Reason = "no AI API key configured"
	case model == nil:
		tiers.Reason = "no AI client available"
	default:
		if err := model.Probe(ctx, cfg.AI.ProbeTimeout); err != nil {
			tiers.Reason = fmt.Sprintf("AI service unavailable: %v", err)
			break
		}
		if cfg.Classification.AIEnabled {
			tiers.Classification = core.TierAI
		}
		if cfg.Summary.AIEnabled {
			tiers.Summary = core.TierAI
		}
	}
	return tiers
}

// Builder helps construct a fully configured Pipeline
type Builder struct {
	cfg         *config.Config
	model       LanguageModel
	scraper     Scraper
	generator   Generator
	classMemo   *cache.Memo[categorization.Result]
	summaryMemo *cache.Memo[summarize.Outcome]
	progress    io.Writer
	gates       []QualityGate
	skipAI      bool
	newModel    func(ctx context.Context, cfg *config.Config) (LanguageModel, io.Closer, error)
}

// NewBuilder creates a new pipeline builder for cfg
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		cfg:      cfg,
		newModel: newGeminiModel,
	}
}

// WithLanguageModel sets the model instead of opening a Gemini client
func (b *Builder) WithLanguageModel(model LanguageModel) *Builder {
	b.model = model
	return b
}

// WithScraper sets the source manager
func (b *Builder) WithScraper(s Scraper) *Builder {
	b.scraper = s
	return b
}

// WithGenerator sets the site generator
func (b *Builder) WithGenerator(g Generator) *Builder {
	b.generator = g
	return b
}

// WithCaches supplies the memo caches so several pipelines can share them
func (b *Builder) WithCaches(classMemo *cache.Memo[categorization.Result], summaryMemo *cache.Memo[summarize.Outcome]) *Builder {
	b.classMemo = classMemo
	b.summaryMemo = summaryMemo
	return b
}

// WithProgress sets where step lines are printed
func (b *Builder) WithProgress(w io.Writer) *Builder {
	b.progress = w
	return b
}

// WithGates replaces the default quality gates
func (b *Builder) WithGates(gates ...QualityGate) *Builder {
	b.gates = gates
	return b
}

// WithoutAI forces the rule and template tiers
func (b *Builder) WithoutAI() *Builder {
	b.skipAI = true
	return b
}

// Build selects tiers and constructs a fully configured Pipeline
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.cfg == nil {
		return nil, core.NewConfigurationError("configuration is required", nil)
	}
	cfg := b.cfg
	log := logger.For("pipeline")

	var closer io.Closer
	model := b.model
	if b.skipAI {
		model = nil
	} else if model == nil && cfg.HasAICredentials() && (cfg.Classification.AIEnabled || cfg.Summary.AIEnabled) {
		m, c, err := b.newModel(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Could not open AI client, using rules and templates")
		} else {
			model, closer = m, c
		}
	}

	var tiers Tiers
	if b.skipAI {
		tiers = Tiers{Classification: core.TierRules, Summary: core.TierTemplate, Reason: "AI disabled for this run"}
	} else {
		tiers = SelectTiers(ctx, cfg, model)
	}
	log.Info().
		Str("classification", string(tiers.Classification)).
		Str("summary", string(tiers.Summary)).
		Str("reason", tiers.Reason).
		Msg("Selected tiers")

	classMemo := b.classMemo
	if classMemo == nil {
		classMemo = cache.NewMemo[categorization.Result]()
	}
	summaryMemo := b.summaryMemo
	if summaryMemo == nil {
		summaryMemo = cache.NewMemo[summarize.Outcome]()
	}

	rules := categorization.NewRuleClassifier(categorization.RuleOptions{
		TitleWeight: categorization.DefaultRuleOptions().TitleWeight,
		BodyWeight:  categorization.DefaultRuleOptions().BodyWeight,
		Floor:       cfg.Classification.RuleFloor,
		Ceiling:     cfg.Classification.RuleCeiling,
	})
	var classifier categorization.Classifier = rules
	if tiers.Classification == core.TierAI {
		classifier = categorization.NewAIClassifier(model, rules, categorization.AIOptions{
			Threshold: cfg.Classification.ConfidenceThreshold,
			Timeout:   cfg.AI.Timeout,
		})
	}
	classifier = categorization.NewCachedClassifier(classifier, classMemo)

	length, err := summarize.ParseLength(cfg.Summary.Length)
	if err != nil {
		return nil, core.NewConfigurationError("invalid summary length", err)
	}
	tone, err := summarize.ParseTone(cfg.Summary.Tone)
	if err != nil {
		return nil, core.NewConfigurationError("invalid summary tone", err)
	}
	var synthesizer summarize.Synthesizer = summarize.NewTemplateSynthesizer(length)
	if tiers.Summary == core.TierAI {
		synthesizer = summarize.NewAISynthesizer(model, synthesizer, summarize.AIOptions{
			Tone:     tone,
			Length:   length,
			MinChars: cfg.Summary.MinChars,
			Timeout:  cfg.AI.Timeout,
		}, summaryMemo)
	}

	owner := cfg.Owner()
	if owner.Name == "" {
		owner.Name = summarize.DefaultOwner
	}
	p := NewPipeline(b.scraper, classifier, synthesizer, b.generator, &Config{
		Owner:      owner,
		Options:    cfg.PresentationOptions(),
		ProjectCap: cfg.ProjectCap(),
		Progress:   b.progress,
	})
	p.tiers = tiers
	p.closer = closer
	if b.gates != nil {
		p.gates = b.gates
	}
	return p, nil
}

// newGeminiModel opens the Gemini client described by cfg.
func newGeminiModel(ctx context.Context, cfg *config.Config) (LanguageModel, io.Closer, error) {
	client, err := llm.NewClient(ctx, cfg.AI.APIKey, llm.Options{
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client, nil
}
