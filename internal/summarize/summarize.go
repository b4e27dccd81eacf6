// Package summarize writes the one or two sentence portfolio blurb for each
// project, either from phrase templates or with a language model.
package summarize

import (
	"context"
	"fmt"
	"strings"

	"necromancer/internal/core"
)

// DefaultOwner is used when no owner name is configured.
const DefaultOwner = "The developer"

// Length controls how many descriptive clauses a summary carries.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// Tone steers the AI tier's wording.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneCasual       Tone = "casual"
	ToneEnthusiastic Tone = "enthusiastic"
)

// ParseLength validates a length name.
func ParseLength(s string) (Length, error) {
	switch l := Length(strings.ToLower(strings.TrimSpace(s))); l {
	case LengthShort, LengthMedium, LengthLong:
		return l, nil
	}
	return "", fmt.Errorf("unknown summary length %q (want short, medium or long)", s)
}

// ParseTone validates a tone name.
func ParseTone(s string) (Tone, error) {
	switch t := Tone(strings.ToLower(strings.TrimSpace(s))); t {
	case ToneProfessional, ToneCasual, ToneEnthusiastic:
		return t, nil
	}
	return "", fmt.Errorf("unknown summary tone %q (want professional, casual or enthusiastic)", s)
}

// Result is a summary and the tier that produced it.
type Result struct {
	Text string    `json:"text"`
	Tier core.Tier `json:"tier"`
}

// Synthesizer produces a summary for a classified project. Implementations
// never fail and never return empty text.
type Synthesizer interface {
	Summarize(ctx context.Context, p core.Project, owner string) Result
}

// Outcome is the internal result of one AI attempt.
type Outcome struct {
	Text string
	Err  error
}

// OK reports whether the attempt produced a usable summary.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Apply copies a summary onto a project.
func Apply(p *core.Project, r Result) {
	p.Summary = r.Text
	p.SummarizedBy = r.Tier
}

func ownerOrDefault(owner string) string {
	if owner = strings.TrimSpace(owner); owner == "" {
		return DefaultOwner
	}
	return owner
}
