package summarize

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"necromancer/internal/core"
)

// MockLLMClient implements LLMClient for testing
type MockLLMClient struct {
	mu         sync.Mutex
	response   string
	callCount  int
	prompts    []string
	shouldFail bool
}

func (m *MockLLMClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	if m.shouldFail {
		return "", &mockError{message: "mock LLM error"}
	}
	return m.response, nil
}

type mockError struct {
	message string
}

func (e *mockError) Error() string {
	return e.message
}

const goodSummary = `"In this project, Ada skillfully wired a Python CI pipeline into an automated test suite to deliver faster, safer releases."`

func TestAISynthesizerUsesModelAnswer(t *testing.T) {
	client := &MockLLMClient{response: goodSummary}
	s := NewAISynthesizer(client, NewTemplateSynthesizer(LengthShort), DefaultAIOptions(), nil)

	got := s.Summarize(context.Background(), scenarioProject(), "Ada")

	assert.Equal(t, core.TierAI, got.Tier)
	assert.Equal(t, strings.Trim(goodSummary, `"`), got.Text)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "In this project, Ada skillfully")
	assert.Contains(t, client.prompts[0], "Title: Automated Test Suite Builder")
}

func TestAISynthesizerFallback(t *testing.T) {
	template := NewTemplateSynthesizer(LengthShort)
	want := template.Summarize(context.Background(), scenarioProject(), "Ada")

	tests := []struct {
		name    string
		client  *MockLLMClient
		wantErr error
	}{
		{"service error", &MockLLMClient{shouldFail: true}, nil},
		{"empty", &MockLLMClient{response: "  \"\" "}, ErrEmptySummary},
		{"too short", &MockLLMClient{response: "Ada coded."}, ErrSummaryTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewAISynthesizer(tt.client, template, DefaultAIOptions(), nil)

			outcome := s.Attempt(context.Background(), scenarioProject(), "Ada")
			require.False(t, outcome.OK())
			if tt.wantErr != nil {
				assert.ErrorIs(t, outcome.Err, tt.wantErr)
			} else {
				assert.True(t, core.Is(outcome.Err, core.ErrCodeService))
			}

			assert.Equal(t, want, s.Summarize(context.Background(), scenarioProject(), "Ada"))
		})
	}
}

func TestAISynthesizerMemoizesByContent(t *testing.T) {
	client := &MockLLMClient{response: goodSummary}
	s := NewAISynthesizer(client, NewTemplateSynthesizer(LengthShort), DefaultAIOptions(), nil)

	a := scenarioProject()
	b := scenarioProject()
	b.ID = "proj-2"
	b.Tags = []string{"ci", "python"}

	first := s.Summarize(context.Background(), a, "Ada")
	second := s.Summarize(context.Background(), b, "Ada")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.callCount)

	// A different owner is a different summary.
	s.Summarize(context.Background(), a, "Grace")
	assert.Equal(t, 2, client.callCount)
}

func TestAISynthesizerFailureIsMemoized(t *testing.T) {
	client := &MockLLMClient{shouldFail: true}
	template := NewTemplateSynthesizer(LengthShort)
	s := NewAISynthesizer(client, template, DefaultAIOptions(), nil)

	a := scenarioProject()
	b := scenarioProject()
	b.ID = "another-id"

	gotA := s.Summarize(context.Background(), a, "Ada")
	gotB := s.Summarize(context.Background(), b, "Ada")

	assert.Equal(t, 1, client.callCount)
	// Fallback output still follows each record's own ID.
	assert.Equal(t, template.Summarize(context.Background(), a, "Ada"), gotA)
	assert.Equal(t, template.Summarize(context.Background(), b, "Ada"), gotB)
}

func TestCleanSummary(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"In this project, Ada built it."`, "In this project, Ada built it."},
		{"**In this project**,\n  Ada   built it.", "In this project, Ada built it."},
		{"One. Two! Three? Four.", "One. Two!"},
		{"Version 1.2 shipped. Then more. And more.", "Version 1.2 shipped. Then more."},
		{"no terminator", "no terminator"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanSummary(tt.in), tt.in)
	}
}

func TestParseStyle(t *testing.T) {
	l, err := ParseLength(" Long ")
	require.NoError(t, err)
	assert.Equal(t, LengthLong, l)
	_, err = ParseLength("epic")
	assert.Error(t, err)

	tone, err := ParseTone("casual")
	require.NoError(t, err)
	assert.Equal(t, ToneCasual, tone)
	_, err = ParseTone("grumpy")
	assert.Error(t, err)
}

func TestBuildSummaryPrompt_MultibyteDescription(t *testing.T) {
	p := core.Project{Title: "Café menu", Description: strings.Repeat("é", 2000), Category: core.CategoryDesign}
	prompt := BuildSummaryPrompt(p, "Ada", ToneProfessional, LengthShort)

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, strings.Repeat("é", 1500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("é", 1501))
}

func TestTruncateContent(t *testing.T) {
	assert.Equal(t, "short", truncateContent("short", 10))
	assert.Equal(t, "héllo wörld...", truncateContent("héllo wörld ünd mehr", 14))
	assert.True(t, utf8.ValidString(truncateContent(strings.Repeat("日本", 50), 7)))
	assert.Equal(t, "日本日本日本日...", truncateContent(strings.Repeat("日本", 50), 7))
}
