package summarize

import (
	"fmt"
	"strings"

	"necromancer/internal/core"
)

// lengthGuidance maps a length onto an instruction for the model.
var lengthGuidance = map[Length]string{
	LengthShort:  "exactly one sentence of at most 35 words",
	LengthMedium: "one or two sentences, at most 55 words in total",
	LengthLong:   "exactly two sentences, at most 80 words in total",
}

// BuildSummaryPrompt asks for a portfolio blurb in the fixed rhetorical form.
func BuildSummaryPrompt(p core.Project, owner string, tone Tone, length Length) string {
	owner = ownerOrDefault(owner)
	guidance, ok := lengthGuidance[length]
	if !ok {
		guidance = lengthGuidance[LengthShort]
	}

	var prompt strings.Builder

	prompt.WriteString("Write a portfolio summary for this project. Make it accomplishment-focused and specific to the details given.\n\n")
	prompt.WriteString(fmt.Sprintf("Format: \"In this project, %s skillfully [action drawn from the project details] to deliver [outcome or impact].\"\n", owner))
	prompt.WriteString(fmt.Sprintf("Length: %s.\n", guidance))
	prompt.WriteString(fmt.Sprintf("Tone: %s.\n\n", tone))

	prompt.WriteString("Project details:\n")
	prompt.WriteString(fmt.Sprintf("Title: %s\n", p.Title))
	if p.Category != "" {
		prompt.WriteString(fmt.Sprintf("Category: %s\n", p.Category.DisplayName()))
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		prompt.WriteString(fmt.Sprintf("Description: %s\n", truncateContent(desc, 1500)))
	}
	if p.Source != "" {
		prompt.WriteString(fmt.Sprintf("Source: %s\n", p.Source))
	}
	if len(p.Tags) > 0 {
		prompt.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(p.Tags, ", ")))
	}

	prompt.WriteString("\nRespond with the summary text only, no quotes or commentary.")
	return prompt.String()
}

// truncateContent limits content to maxChars runes, cutting at a word
// boundary when one is near the end.
func truncateContent(content string, maxChars int) string {
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}
	cut := string(runes[:maxChars])
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
