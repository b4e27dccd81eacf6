package summarize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/core"
)

func scenarioProject() core.Project {
	return core.Project{
		ID:          "proj-1",
		Title:       "Automated Test Suite Builder",
		Description: "wrote a CI pipeline in Python",
		Tags:        []string{"python", "ci"},
		Category:    core.CategoryCode,
	}
}

func TestTemplateScenario(t *testing.T) {
	s := NewTemplateSynthesizer(LengthShort)

	got := s.Summarize(context.Background(), scenarioProject(), "Ada")

	assert.True(t, strings.HasPrefix(got.Text, "In this project, Ada skillfully"), got.Text)
	assert.Equal(t, core.TierTemplate, got.Tier)

	found := false
	for _, outcome := range OutcomePhrases(core.CategoryCode) {
		if strings.Contains(got.Text, outcome) {
			found = true
			break
		}
	}
	assert.True(t, found, "expected a Code outcome phrase in %q", got.Text)
}

func TestTemplateIsStable(t *testing.T) {
	s := NewTemplateSynthesizer(LengthLong)
	p := scenarioProject()

	first := s.Summarize(context.Background(), p, "Ada")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, s.Summarize(context.Background(), p, "Ada"))
	}
	assert.Equal(t, first, NewTemplateSynthesizer(LengthLong).Summarize(context.Background(), p, "Ada"))
}

func TestTemplateDefaultOwner(t *testing.T) {
	s := NewTemplateSynthesizer(LengthShort)

	got := s.Summarize(context.Background(), core.Project{ID: "x", Title: "Thing"}, "  ")
	assert.True(t, strings.HasPrefix(got.Text, "In this project, The developer skillfully"), got.Text)
}

func TestTemplateLengths(t *testing.T) {
	p := scenarioProject()
	ctx := context.Background()

	short := NewTemplateSynthesizer(LengthShort).Summarize(ctx, p, "Ada").Text
	medium := NewTemplateSynthesizer(LengthMedium).Summarize(ctx, p, "Ada").Text
	long := NewTemplateSynthesizer(LengthLong).Summarize(ctx, p, "Ada").Text

	assert.Zero(t, strings.Count(short, ". "), "short should be one sentence: %q", short)
	assert.True(t, strings.HasPrefix(medium, short))
	assert.True(t, strings.HasPrefix(long, short))
	assert.Contains(t, medium, "Automated Test Suite Builder showcases")
	assert.Contains(t, long, "drawing on python and ci")
	assert.Greater(t, len(medium), len(short))
	assert.Greater(t, len(long), len(medium))
	for _, text := range []string{short, medium, long} {
		assert.LessOrEqual(t, strings.Count(text, "."), 2, text)
	}
}

func TestTemplateTotality(t *testing.T) {
	s := NewTemplateSynthesizer(Length("bogus"))

	projects := []core.Project{
		{},
		{Category: core.Category("Other")},
		{ID: "1", Category: core.CategoryDesign},
		{ID: "2", Category: core.CategoryWriting, Title: "Essay!"},
		{ID: "3", Category: core.CategoryMiscellaneous},
	}
	for _, p := range projects {
		got := s.Summarize(context.Background(), p, "")
		assert.NotEmpty(t, strings.TrimSpace(got.Text), "project %+v", p)
	}
}

func TestJoinList(t *testing.T) {
	tests := map[string][]string{
		"":               nil,
		"go":             {"go"},
		"go and sql":     {"go", "sql"},
		"go, sql and ci": {"go", "sql", "ci"},
	}
	for want, in := range tests {
		assert.Equal(t, want, joinList(in), "joinList(%v)", in)
	}
}
