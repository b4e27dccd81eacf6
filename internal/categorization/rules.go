package categorization

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"necromancer/internal/core"
)

// RuleOptions tunes the keyword classifier.
type RuleOptions struct {
	TitleWeight int     // weight of a keyword hit in the title
	BodyWeight  int     // weight of a hit in description or tags
	Floor       float64 // confidence for ties and empty input
	Ceiling     float64 // confidence for an uncontested winner, below 1.0
}

// DefaultRuleOptions returns the default weights and confidence bounds.
func DefaultRuleOptions() RuleOptions {
	return RuleOptions{
		TitleWeight: 2,
		BodyWeight:  1,
		Floor:       0.3,
		Ceiling:     0.9,
	}
}

// RuleClassifier scores each category by keyword hits. It is a pure
// function of its input and never calls out.
type RuleClassifier struct {
	opts  RuleOptions
	pools map[core.Category][][]string
}

// NewRuleClassifier creates a classifier using the DefaultCategories keyword pools.
func NewRuleClassifier(opts RuleOptions) *RuleClassifier {
	defaults := DefaultRuleOptions()
	if opts == (RuleOptions{}) {
		opts = defaults
	}
	if opts.TitleWeight <= 0 {
		opts.TitleWeight = defaults.TitleWeight
	}
	if opts.BodyWeight <= 0 {
		opts.BodyWeight = defaults.BodyWeight
	}
	if opts.Ceiling <= 0 || opts.Ceiling > 1 {
		opts.Ceiling = defaults.Ceiling
	}
	if opts.Floor < 0 || opts.Floor > opts.Ceiling {
		opts.Floor = defaults.Floor
	}

	pools := make(map[core.Category][][]string)
	for _, info := range DefaultCategories() {
		for _, kw := range info.Keywords {
			pools[info.Category] = append(pools[info.Category], tokenize(kw))
		}
	}
	return &RuleClassifier{opts: opts, pools: pools}
}

// Options returns the effective options.
func (r *RuleClassifier) Options() RuleOptions {
	return r.opts
}

// Scores returns the weighted keyword score of every category.
func (r *RuleClassifier) Scores(in Input) map[core.Category]int {
	title := tokenize(in.Title)
	body := tokenize(in.Description)
	for _, tag := range in.Tags {
		body = append(body, tokenize(tag)...)
	}

	scores := make(map[core.Category]int, len(r.pools))
	for _, c := range core.AllCategories() {
		score := 0
		for _, kw := range r.pools[c] {
			score += r.opts.TitleWeight * countPhrase(title, kw)
			score += r.opts.BodyWeight * countPhrase(body, kw)
		}
		scores[c] = score
	}
	return scores
}

// Classify picks the category with the strictly highest score, breaking
// ties by category priority. Confidence grows with the winner's margin over
// the runner-up, between Floor and Ceiling.
func (r *RuleClassifier) Classify(_ context.Context, in Input) Result {
	scores := r.Scores(in)

	ranked := core.AllCategories()
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i]], scores[ranked[j]]
		if si != sj {
			return si > sj
		}
		return ranked[i].Priority() > ranked[j].Priority()
	})

	top, runnerUp := scores[ranked[0]], scores[ranked[1]]
	if top == 0 {
		return Result{
			Category:   core.CategoryMiscellaneous,
			Confidence: r.opts.Floor,
			Tier:       core.TierRules,
			Reasoning:  "no category keywords matched",
		}
	}

	margin := float64(top-runnerUp) / float64(top)
	return Result{
		Category:   ranked[0],
		Confidence: r.opts.Floor + (r.opts.Ceiling-r.opts.Floor)*margin,
		Tier:       core.TierRules,
		Reasoning:  describeScores(ranked, scores),
	}
}

func describeScores(ranked []core.Category, scores map[core.Category]int) string {
	parts := make([]string, 0, len(ranked))
	for _, c := range ranked {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(string(c)), scores[c]))
	}
	return "keyword scores: " + strings.Join(parts, " ")
}

// tokenize lowercases s and splits it into words. '+' and '#' are kept
// inside words so "c++" and "c#" survive; a leading '#' (hashtags) is dropped.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := fields[:0]
	for _, f := range fields {
		if trimmed := strings.TrimLeft(f, "#"); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// countPhrase counts occurrences of phrase as consecutive tokens.
func countPhrase(tokens, phrase []string) int {
	if len(phrase) == 0 || len(tokens) < len(phrase) {
		return 0
	}
	count := 0
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}
