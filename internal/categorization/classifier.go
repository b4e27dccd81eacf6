// Package categorization assigns projects to one of the fixed categories,
// either with a language model or with deterministic keyword rules.
package categorization

import (
	"context"

	"necromancer/internal/core"
)

// Input is the content a classifier looks at.
type Input struct {
	Title       string
	Description string
	Tags        []string
}

// InputFrom extracts the classifier input from a project.
func InputFrom(p core.Project) Input {
	return Input{Title: p.Title, Description: p.Description, Tags: p.Tags}
}

// Result is a classification and the tier that produced it.
type Result struct {
	Category   core.Category `json:"category"`
	Confidence float64       `json:"confidence"`
	Tier       core.Tier     `json:"tier"`
	Reasoning  string        `json:"reasoning,omitempty"`
}

// Classifier assigns a category. Implementations never fail; degraded
// answers come back as lower-confidence rule results.
type Classifier interface {
	Classify(ctx context.Context, in Input) Result
}

// Outcome is the internal result of one AI attempt: either a usable Result
// or the reason it was rejected.
type Outcome struct {
	Result Result
	Err    error
}

// OK reports whether the attempt produced a usable result.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Apply copies a classification onto a project.
func Apply(p *core.Project, r Result) {
	p.Category = r.Category
	p.Confidence = r.Confidence
	p.ClassifiedBy = r.Tier
}
