package summarize

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"necromancer/internal/core"
)

// TemplateSynthesizer fills the fixed sentence form from per-category phrase
// pools. Phrase choice depends only on the project ID, so reruns are stable.
type TemplateSynthesizer struct {
	length Length
}

// NewTemplateSynthesizer creates a template synthesizer. Unknown lengths are
// treated as short.
func NewTemplateSynthesizer(length Length) *TemplateSynthesizer {
	if _, err := ParseLength(string(length)); err != nil {
		length = LengthShort
	}
	return &TemplateSynthesizer{length: length}
}

// Summarize builds "In this project, {owner} skillfully {action} to deliver
// {outcome}." plus, for medium and long, a second sentence about the project.
func (t *TemplateSynthesizer) Summarize(_ context.Context, p core.Project, owner string) Result {
	pool := PoolFor(p.Category)
	seed := p.ID
	if seed == "" {
		seed = p.Title
	}

	var b strings.Builder
	fmt.Fprintf(&b, "In this project, %s skillfully %s to deliver %s.",
		ownerOrDefault(owner),
		pick(pool.Actions, seed, "action"),
		pick(pool.Outcomes, seed, "outcome"),
	)

	if t.length != LengthShort {
		subject := cleanTitle(p.Title)
		if subject == "" {
			subject = "The work"
		}
		fmt.Fprintf(&b, " %s showcases %s", subject, pick(pool.Strengths, seed, "strength"))
		if t.length == LengthLong {
			if tags := leadingTags(p.Tags, 3); len(tags) > 0 {
				fmt.Fprintf(&b, ", drawing on %s", joinList(tags))
			} else {
				b.WriteString(", from first concept to finished result")
			}
		}
		b.WriteString(".")
	}

	return Result{Text: b.String(), Tier: core.TierTemplate}
}

// pick selects a pool entry by hashing seed with a salt, so the action,
// outcome and strength choices vary independently.
func pick(pool []string, seed, salt string) string {
	h := fnv.New32a()
	h.Write([]byte(seed))
	h.Write([]byte{0})
	h.Write([]byte(salt))
	return pool[int(h.Sum32()%uint32(len(pool)))]
}

func cleanTitle(title string) string {
	return strings.TrimRight(strings.TrimSpace(title), ".!?;:, ")
}

// leadingTags returns up to n distinct, non-empty tags in order.
func leadingTags(tags []string, n int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if len(out) == n {
			break
		}
	}
	return out
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
}
