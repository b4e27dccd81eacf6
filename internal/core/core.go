package core

import (
	"strings"
	"time"
)

// Category is one of the fixed buckets a project is filed under.
type Category string

const (
	CategoryWriting       Category = "Writing"
	CategoryDesign        Category = "Design"
	CategoryCode          Category = "Code"
	CategoryMiscellaneous Category = "Miscellaneous"
)

// AllCategories returns the categories in display order.
func AllCategories() []Category {
	return []Category{CategoryWriting, CategoryDesign, CategoryCode, CategoryMiscellaneous}
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWriting, CategoryDesign, CategoryCode, CategoryMiscellaneous:
		return true
	}
	return false
}

// DisplayName is the label shown on generated pages.
func (c Category) DisplayName() string {
	if c == CategoryMiscellaneous {
		return "Miscellaneous Unicorn Work"
	}
	return string(c)
}

// Slug is the file-name form of the display name (e.g. "miscellaneous_unicorn_work").
func (c Category) Slug() string {
	return strings.ReplaceAll(strings.ToLower(c.DisplayName()), " ", "_")
}

// Priority orders categories for tie-breaking; higher wins.
func (c Category) Priority() int {
	switch c {
	case CategoryCode:
		return 4
	case CategoryDesign:
		return 3
	case CategoryWriting:
		return 2
	case CategoryMiscellaneous:
		return 1
	}
	return 0
}

// ParseCategory maps free text onto a known category. It accepts the plain
// names, the display name and "unicorn" in any case, ignoring surrounding
// punctuation. Anything else is rejected.
func ParseCategory(s string) (Category, bool) {
	s = strings.Trim(strings.TrimSpace(s), " \t\r\n\"'`.,:;!*")
	switch strings.ToLower(s) {
	case "writing":
		return CategoryWriting, true
	case "design":
		return CategoryDesign, true
	case "code":
		return CategoryCode, true
	case "miscellaneous", "miscellaneous unicorn work", "unicorn work", "unicorn", "misc":
		return CategoryMiscellaneous, true
	}
	return "", false
}

// Source identifies where a project record was harvested from.
type Source string

const (
	SourceManual     Source = "manual"
	SourceEmail      Source = "email"
	SourceDrive      Source = "google_drive"
	SourceSlack      Source = "slack"
	SourceFigma      Source = "figma"
	SourceScreenshot Source = "screenshot"
)

// Tier records which implementation produced a classification or summary.
type Tier string

const (
	TierAI       Tier = "ai"
	TierRules    Tier = "rules"
	TierTemplate Tier = "template"
)

// Project is a single piece of work flowing through the pipeline.
type Project struct {
	ID          string            `json:"id"`                 // Unique within one portfolio run
	Title       string            `json:"title"`              // Never empty after normalization
	Description string            `json:"description"`        // Free text, may be empty
	Tags        []string          `json:"tags"`               // Insertion ordered, duplicates allowed
	Links       []string          `json:"links"`              // External links
	Images      []string          `json:"images"`             // Image references (URLs or paths)
	Source      Source            `json:"source"`             // Which scraper produced it
	Date        time.Time         `json:"date"`               // Creation/observation time
	Client      string            `json:"client,omitempty"`   // Optional client or audience
	Metadata    map[string]string `json:"metadata,omitempty"` // Raw scraper data

	Category     Category `json:"category,omitempty"`      // Assigned category
	Confidence   float64  `json:"confidence"`              // In [0,1]
	ClassifiedBy Tier     `json:"classified_by,omitempty"` // ai or rules
	Summary      string   `json:"summary,omitempty"`       // One or two sentences
	SummarizedBy Tier     `json:"summarized_by,omitempty"` // ai or template
}

// Validate checks the invariants a project must satisfy once the pipeline
// has run over it.
func (p *Project) Validate() error {
	switch {
	case strings.TrimSpace(p.Title) == "":
		return NewValidationError(p.ID, "title is empty")
	case !p.Category.Valid():
		return NewValidationError(p.ID, "unknown category "+string(p.Category))
	case p.Confidence < 0 || p.Confidence > 1:
		return NewValidationError(p.ID, "confidence outside [0,1]")
	case strings.TrimSpace(p.Summary) == "":
		return NewValidationError(p.ID, "summary is empty")
	}
	return nil
}
