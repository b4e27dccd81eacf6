package llm

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := CleanJSONBlock(tt.in); got != tt.want {
			t.Errorf("CleanJSONBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("In this project, "), genai.Text("Ada shipped.")}},
		}},
	}
	got, err := extractText(resp)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "In this project, Ada shipped." {
		t.Errorf("Unexpected text: %q", got)
	}
}

func TestExtractTextEmpty(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"blank text": {Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("   ")}},
		}}},
	}
	for name, resp := range cases {
		if _, err := extractText(resp); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), " ", Options{}); err == nil {
		t.Error("Expected error for empty API key")
	}
}
