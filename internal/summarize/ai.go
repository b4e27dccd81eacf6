package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"necromancer/internal/cache"
	"necromancer/internal/core"
	"necromancer/internal/logger"
)

// LLMClient defines the interface for LLM operations
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

var (
	// ErrEmptySummary means the model returned nothing usable.
	ErrEmptySummary = errors.New("summary is empty")
	// ErrSummaryTooShort means the cleaned text is under the minimum length.
	ErrSummaryTooShort = errors.New("summary too short")
)

// AIOptions configures the AI synthesizer.
type AIOptions struct {
	Tone     Tone
	Length   Length
	MinChars int           // cleaned summaries shorter than this are rejected
	Timeout  time.Duration // per call
}

// DefaultAIOptions returns the defaults used by the pipeline.
func DefaultAIOptions() AIOptions {
	return AIOptions{
		Tone:     ToneProfessional,
		Length:   LengthMedium,
		MinChars: 50,
		Timeout:  15 * time.Second,
	}
}

// AISynthesizer asks a language model for the summary and falls back to
// another synthesizer when the answer is unusable. Attempts are memoized by
// content, owner, category and style, so identical content costs at most
// one call per process.
type AISynthesizer struct {
	client   LLMClient
	fallback Synthesizer
	opts     AIOptions
	memo     *cache.Memo[Outcome]
	log      zerolog.Logger
}

// NewAISynthesizer creates an AI synthesizer. A nil memo gets a fresh one.
func NewAISynthesizer(client LLMClient, fallback Synthesizer, opts AIOptions, memo *cache.Memo[Outcome]) *AISynthesizer {
	defaults := DefaultAIOptions()
	if opts.Tone == "" {
		opts.Tone = defaults.Tone
	}
	if opts.Length == "" {
		opts.Length = defaults.Length
	}
	if opts.MinChars <= 0 {
		opts.MinChars = defaults.MinChars
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if memo == nil {
		memo = cache.NewMemo[Outcome]()
	}
	return &AISynthesizer{
		client:   client,
		fallback: fallback,
		opts:     opts,
		memo:     memo,
		log:      logger.For("summarizer"),
	}
}

// Summarize returns the model's summary, or the fallback's when the model's
// answer for this content was rejected.
func (a *AISynthesizer) Summarize(ctx context.Context, p core.Project, owner string) Result {
	owner = ownerOrDefault(owner)
	key := cache.Derive(
		cache.Fingerprint(p.Title, p.Description, p.Tags),
		owner, string(p.Category), string(a.opts.Tone), string(a.opts.Length),
	)

	outcome := a.memo.GetOrCompute(key, func() Outcome {
		return a.Attempt(ctx, p, owner)
	})
	if outcome.OK() {
		return Result{Text: outcome.Text, Tier: core.TierAI}
	}

	a.log.Debug().Err(outcome.Err).Str("id", p.ID).Msg("AI summary rejected, using template")
	return a.fallback.Summarize(ctx, p, owner)
}

// Attempt makes one call to the model, bounded by the configured timeout and
// not cancelled by ctx, and validates the cleaned response.
func (a *AISynthesizer) Attempt(ctx context.Context, p core.Project, owner string) Outcome {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.Timeout)
	defer cancel()

	raw, err := a.client.GenerateText(callCtx, BuildSummaryPrompt(p, owner, a.opts.Tone, a.opts.Length))
	if err != nil {
		return Outcome{Err: core.NewServiceError("summarize", err)}
	}

	text := cleanSummary(raw)
	if err := a.validateSummary(text); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Text: text}
}

func (a *AISynthesizer) validateSummary(summary string) error {
	if summary == "" {
		return ErrEmptySummary
	}
	if n := len([]rune(summary)); n < a.opts.MinChars {
		return fmt.Errorf("%w: %d chars (minimum: %d)", ErrSummaryTooShort, n, a.opts.MinChars)
	}
	return nil
}

// Stats reports memo usage.
func (a *AISynthesizer) Stats() cache.Stats {
	return a.memo.Stats()
}

// cleanSummary strips quotes and markdown emphasis, collapses whitespace and
// keeps at most two sentences.
func cleanSummary(raw string) string {
	text := strings.NewReplacer(
		"\"", "", "“", "", "”", "", "**", "", "`", "",
	).Replace(raw)
	text = strings.Join(strings.Fields(text), " ")
	text = strings.Trim(text, "'‘’ ")
	return firstSentences(text, 2)
}

// firstSentences returns the text up to and including the nth sentence
// terminator that is followed by a space or the end of the text.
func firstSentences(text string, n int) string {
	runes := []rune(text)
	count := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && runes[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			return string(runes[:i+1])
		}
	}
	return text
}
