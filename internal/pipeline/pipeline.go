package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"necromancer/internal/cache"
	"necromancer/internal/categorization"
	"necromancer/internal/core"
	"necromancer/internal/logger"
	"necromancer/internal/sources"
	"necromancer/internal/summarize"
)

// Pipeline runs scrape → classify → summarize → truncate → generate. It holds
// no per-run state, so one Pipeline may serve concurrent runs.
type Pipeline struct {
	scraper     Scraper
	classifier  categorization.Classifier
	synthesizer summarize.Synthesizer
	generator   Generator
	gates       []QualityGate
	tiers       Tiers
	config      *Config
	closer      io.Closer
	log         zerolog.Logger
}

// Config holds pipeline configuration
type Config struct {
	Owner      core.Owner
	Options    core.PresentationOptions
	ProjectCap int // 0 means unlimited

	// Progress receives human readable step lines; nil is silent.
	Progress io.Writer
	// Now is the clock used for generation times and missing dates.
	Now func() time.Time
}

// DefaultConfig returns the free tier defaults.
func DefaultConfig() *Config {
	return &Config{
		Owner:      core.Owner{Name: summarize.DefaultOwner},
		Options:    core.PresentationOptions{Theme: "modern", ColorScheme: "blue", ShowWatermark: true, MaxProjects: 20},
		ProjectCap: 20,
		Now:        time.Now,
	}
}

// NewPipeline creates a pipeline from its parts. scraper and generator may
// be nil: a nil scraper only processes records passed in RunOptions, a nil
// generator turns every run into a dry run.
func NewPipeline(
	scraper Scraper,
	classifier categorization.Classifier,
	synthesizer summarize.Synthesizer,
	generator Generator,
	config *Config,
) *Pipeline {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Pipeline{
		scraper:     scraper,
		classifier:  classifier,
		synthesizer: synthesizer,
		generator:   generator,
		gates:       DefaultGates(),
		tiers:       Tiers{Classification: core.TierRules, Summary: core.TierTemplate},
		config:      config,
		log:         logger.For("pipeline"),
	}
}

// Tiers reports which tiers this pipeline runs with.
func (p *Pipeline) Tiers() Tiers {
	return p.tiers
}

// Close releases the language model client, if the builder opened one.
func (p *Pipeline) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// RunOptions configures one run.
type RunOptions struct {
	// Owner overrides the configured owner when Name is set.
	Owner core.Owner
	// Options overrides the configured presentation options.
	Options *core.PresentationOptions
	// Projects are processed after the scraped records.
	Projects []core.Project
	// OutputName names the output directory.
	OutputName string
	// DryRun stops before the generator.
	DryRun bool
	// SkipSources ignores the scraper and processes Projects only.
	SkipSources bool
}

// RunResult contains the output of a run
type RunResult struct {
	Portfolio  *core.Portfolio
	OutputPath string
	Reports    []sources.Report
	Stats      ProcessingStats
}

// ProcessingStats tracks pipeline execution metrics
type ProcessingStats struct {
	Scraped        int
	Processed      int
	Dropped        int // removed by the project cap
	FailedSources  int
	ClassifiedBy   map[core.Tier]int
	SummarizedBy   map[core.Tier]int
	ProcessingTime time.Duration
	StartTime      time.Time
	EndTime        time.Time
}

// Run executes the full pipeline. Source failures are recorded in the
// result; the only errors returned are ErrNoProjects, a blocking quality
// gate and generation failures.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	start := p.config.Now()
	result := &RunResult{
		Stats: ProcessingStats{
			StartTime:    start,
			ClassifiedBy: make(map[core.Tier]int),
			SummarizedBy: make(map[core.Tier]int),
		},
	}
	stats := &result.Stats

	p.step("📥 Step 1/5: Scraping sources...")
	var records []core.Project
	if p.scraper != nil && !opts.SkipSources {
		records, result.Reports = p.scraper.ScrapeAll(ctx)
	}
	records = append(records, opts.Projects...)
	stats.Scraped = len(records)
	stats.FailedSources = len(sources.Failed(result.Reports))
	p.stepf("   ✓ Found %d potential projects (%d sources failed)\n", stats.Scraped, stats.FailedSources)

	if len(records) == 0 {
		return result, core.ErrNoProjects
	}

	p.step("🏷️  Step 2/5: Categorizing and summarizing projects...")
	owner := p.owner(opts)
	processed, err := p.Process(ctx, records, owner.Name)
	if err != nil {
		return result, err
	}
	for _, pr := range processed {
		stats.ClassifiedBy[pr.ClassifiedBy]++
		stats.SummarizedBy[pr.SummarizedBy]++
	}
	stats.Processed = len(processed)
	p.stepf("   ✓ %d projects classified (%s) and summarized (%s)\n",
		len(processed), formatTiers(stats.ClassifiedBy), formatTiers(stats.SummarizedBy))

	p.step("📦 Step 3/5: Assembling portfolio...")
	portfolio := p.Assemble(processed, owner, opts.Options)
	stats.Dropped = portfolio.Truncate(p.config.ProjectCap)
	if stats.Dropped > 0 {
		p.stepf("   • Free tier keeps the first %d projects (%d dropped)\n", p.config.ProjectCap, stats.Dropped)
	}
	result.Portfolio = portfolio

	p.step("🔍 Step 4/5: Checking quality gates...")
	if err := p.runGates(ctx, portfolio); err != nil {
		return result, err
	}

	if opts.DryRun || p.generator == nil {
		p.step("🎨 Step 5/5: Skipping site generation (dry run)")
	} else {
		p.step("🎨 Step 5/5: Generating portfolio website...")
		path, err := p.generator.Generate(ctx, portfolio, opts.OutputName)
		if err != nil {
			return result, core.NewGenerationError("failed to generate site", err)
		}
		result.OutputPath = path
		p.stepf("   ✓ Written to %s\n", path)
	}

	stats.EndTime = p.config.Now()
	stats.ProcessingTime = stats.EndTime.Sub(start)
	p.log.Info().
		Int("scraped", stats.Scraped).
		Int("processed", stats.Processed).
		Int("dropped", stats.Dropped).
		Int("failed_sources", stats.FailedSources).
		Dur("duration", stats.ProcessingTime).
		Msg("Pipeline run complete")

	return result, nil
}

// Process normalizes, classifies, summarizes and validates records one at a
// time, in order. Classification and summarization cannot fail; a
// validation error means a tier broke its contract. Cancellation is checked
// before each record.
func (p *Pipeline) Process(ctx context.Context, records []core.Project, owner string) ([]core.Project, error) {
	out := make([]core.Project, 0, len(records))
	seen := make(map[string]int, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		pr := p.normalize(rec)
		pr.ID = uniqueID(seen, pr.ID)
		pr, err := p.process(ctx, pr, owner)
		if err != nil {
			return out, err
		}
		out = append(out, pr)
	}
	return out, nil
}

// ProcessOne runs a single record through normalization and both tiers.
func (p *Pipeline) ProcessOne(ctx context.Context, rec core.Project, owner string) (core.Project, error) {
	if err := ctx.Err(); err != nil {
		return rec, err
	}
	return p.process(ctx, p.normalize(rec), owner)
}

func (p *Pipeline) process(ctx context.Context, pr core.Project, owner string) (core.Project, error) {
	categorization.Apply(&pr, p.classifier.Classify(ctx, categorization.InputFrom(pr)))
	summarize.Apply(&pr, p.synthesizer.Summarize(ctx, pr, owner))

	if err := pr.Validate(); err != nil {
		p.log.Error().Err(err).Str("id", pr.ID).Msg("Processed record failed validation")
		return pr, err
	}
	return pr, nil
}

// projectNamespace scopes derived project ids.
var projectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("necromancer/project"))

// deriveID names a record by its content so the same evidence gets the same
// id, and therefore the same template phrasing, on every run.
func deriveID(pr core.Project) string {
	key := strings.Join([]string{
		string(pr.Source),
		cache.Fingerprint(pr.Title, pr.Description, pr.Tags),
		strings.Join(pr.Links, "\n"),
		strings.Join(pr.Images, "\n"),
	}, "\x1f")
	return uuid.NewSHA1(projectNamespace, []byte(key)).String()
}

// uniqueID returns id, or a stable variant of it when id was already used in
// this batch.
func uniqueID(seen map[string]int, id string) string {
	n := seen[id]
	seen[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		candidate := uuid.NewSHA1(projectNamespace, []byte(fmt.Sprintf("%s#%d", id, n))).String()
		if seen[candidate] == 0 {
			seen[candidate] = 1
			return candidate
		}
		n++
	}
}

// normalize fills the fields every later stage relies on.
func (p *Pipeline) normalize(rec core.Project) core.Project {
	pr := rec
	pr.ID = strings.TrimSpace(pr.ID)
	pr.Title = strings.TrimSpace(pr.Title)
	if pr.Title == "" {
		pr.Title = "Untitled Project"
	}
	pr.Description = strings.TrimSpace(pr.Description)
	if pr.Date.IsZero() {
		pr.Date = p.config.Now().UTC()
	} else {
		pr.Date = pr.Date.UTC()
	}
	if pr.Source == "" {
		pr.Source = core.SourceManual
	}
	pr.Tags = cleanTags(pr.Tags)
	if pr.ID == "" {
		pr.ID = deriveID(pr)
	}

	// Category and summary are always recomputed.
	pr.Category = ""
	pr.Confidence = 0
	pr.ClassifiedBy = ""
	pr.Summary = ""
	pr.SummarizedBy = ""
	return pr
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Assemble wraps processed records into a portfolio with the run's owner
// and presentation options. It does not apply the cap.
func (p *Pipeline) Assemble(projects []core.Project, owner core.Owner, options *core.PresentationOptions) *core.Portfolio {
	opts := p.config.Options
	if options != nil {
		opts = *options
	}
	opts.MaxProjects = p.config.ProjectCap
	return &core.Portfolio{
		Owner:       owner,
		Projects:    projects,
		Options:     opts,
		GeneratedAt: p.config.Now().UTC(),
	}
}

func (p *Pipeline) owner(opts RunOptions) core.Owner {
	if strings.TrimSpace(opts.Owner.Name) != "" {
		return opts.Owner
	}
	return p.config.Owner
}

func (p *Pipeline) step(msg string) {
	if p.config.Progress != nil {
		fmt.Fprintln(p.config.Progress, msg)
	}
	p.log.Debug().Msg(strings.TrimSpace(msg))
}

func (p *Pipeline) stepf(format string, args ...any) {
	if p.config.Progress != nil {
		fmt.Fprintf(p.config.Progress, format, args...)
	}
}

func formatTiers(counts map[core.Tier]int) string {
	var parts []string
	for _, tier := range []core.Tier{core.TierAI, core.TierRules, core.TierTemplate} {
		if n := counts[tier]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", tier, n))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}
