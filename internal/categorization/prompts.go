package categorization

import (
	"fmt"
	"strings"
)

// BuildClassificationPrompt asks for a JSON verdict over the fixed category set.
func BuildClassificationPrompt(in Input) string {
	var prompt strings.Builder

	prompt.WriteString("Categorize this portfolio project into exactly ONE of the following categories:\n\n")
	for _, info := range DefaultCategories() {
		prompt.WriteString(fmt.Sprintf("- %s: %s\n", info.Category.DisplayName(), info.Description))
	}

	prompt.WriteString("\nProject:\n")
	prompt.WriteString(fmt.Sprintf("Title: %s\n", in.Title))
	if desc := strings.TrimSpace(in.Description); desc != "" {
		if runes := []rune(desc); len(runes) > 1000 {
			desc = string(runes[:1000]) + "..."
		}
		prompt.WriteString(fmt.Sprintf("Description: %s\n", desc))
	}
	if len(in.Tags) > 0 {
		prompt.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(in.Tags, ", ")))
	}

	prompt.WriteString(`
Respond with a JSON object only:
{"category": "<one category name from the list>", "confidence": <number between 0 and 1>, "reasoning": "<one short sentence>"}`)

	return prompt.String()
}
