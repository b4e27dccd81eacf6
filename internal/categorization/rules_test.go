package categorization

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/core"
)

func TestRuleClassifierScenario(t *testing.T) {
	r := NewRuleClassifier(DefaultRuleOptions())

	got := r.Classify(context.Background(), Input{
		Title:       "Automated Test Suite Builder",
		Description: "wrote a CI pipeline in Python",
		Tags:        []string{"python", "ci"},
	})

	assert.Equal(t, core.CategoryCode, got.Category)
	assert.GreaterOrEqual(t, got.Confidence, 0.3)
	assert.Less(t, got.Confidence, 1.0)
	assert.Equal(t, core.TierRules, got.Tier)
}

func TestRuleClassifierTieBreak(t *testing.T) {
	r := NewRuleClassifier(DefaultRuleOptions())
	ctx := context.Background()

	tests := []struct {
		name        string
		description string
		want        core.Category
	}{
		{"code beats writing", "code article", core.CategoryCode},
		{"code beats design", "logo script", core.CategoryCode},
		{"design beats writing", "essay logo", core.CategoryDesign},
		{"writing beats miscellaneous", "podcast blog", core.CategoryWriting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Description: tt.description}
			for i := 0; i < 5; i++ {
				got := r.Classify(ctx, in)
				require.Equal(t, tt.want, got.Category)
				assert.Equal(t, 0.3, got.Confidence)
			}
		})
	}
}

func TestRuleClassifierTotality(t *testing.T) {
	r := NewRuleClassifier(DefaultRuleOptions())

	inputs := []Input{
		{},
		{Title: "Untitled"},
		{Title: "   ", Description: "", Tags: nil},
		{Title: "???", Tags: []string{"", "!!"}},
	}
	for _, in := range inputs {
		got := r.Classify(context.Background(), in)
		assert.Equal(t, core.CategoryMiscellaneous, got.Category)
		assert.Equal(t, 0.3, got.Confidence)
	}
}

func TestRuleClassifierTitleWeighsMore(t *testing.T) {
	r := NewRuleClassifier(DefaultRuleOptions())

	got := r.Classify(context.Background(), Input{Title: "Logo", Description: "blog"})
	assert.Equal(t, core.CategoryDesign, got.Category)

	scores := r.Scores(Input{Title: "Logo", Description: "blog"})
	assert.Equal(t, 2, scores[core.CategoryDesign])
	assert.Equal(t, 1, scores[core.CategoryWriting])
}

func TestRuleClassifierMatchesWholeWords(t *testing.T) {
	r := NewRuleClassifier(DefaultRuleOptions())

	// "suite" contains "ui" and "building" contains "ui"; neither is a design hit.
	scores := r.Scores(Input{Title: "Suite", Description: "building guidelines"})
	assert.Equal(t, 0, scores[core.CategoryDesign])
}

func TestRuleClassifierPhrasesAndSymbols(t *testing.T) {
	r := NewRuleClassifier(DefaultRuleOptions())

	scores := r.Scores(Input{Description: "Opened a pull request", Tags: []string{"C++", "#Figma"}})
	assert.Equal(t, 2, scores[core.CategoryCode])
	assert.Equal(t, 1, scores[core.CategoryDesign])
}

func TestRuleClassifierConfidenceBounds(t *testing.T) {
	r := NewRuleClassifier(RuleOptions{TitleWeight: 2, BodyWeight: 1, Floor: 0.2, Ceiling: 0.8})

	clear := r.Classify(context.Background(), Input{Title: "Python API server"})
	assert.Equal(t, core.CategoryCode, clear.Category)
	assert.InDelta(t, 0.8, clear.Confidence, 1e-9)

	mixed := r.Classify(context.Background(), Input{Description: "python python blog"})
	assert.Equal(t, core.CategoryCode, mixed.Category)
	assert.InDelta(t, 0.2+0.6*0.5, mixed.Confidence, 1e-9)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"c++", "and", "c#", "design"}, tokenize("C++ and C#, #design"))
	assert.Empty(t, tokenize(" -- "))
}
