package categorization

import "necromancer/internal/core"

// CategoryInfo describes a category for prompts, pages and the rule classifier.
type CategoryInfo struct {
	Category    core.Category
	Icon        string
	Description string
	Keywords    []string // single words or space separated phrases, lowercase
}

// DefaultCategories returns the standard category set in display order.
func DefaultCategories() []CategoryInfo {
	return []CategoryInfo{
		{
			Category:    core.CategoryWriting,
			Icon:        "✍️",
			Description: "Articles, blog posts, documentation, guides, reports and other written work",
			Keywords: []string{
				"article", "articles", "blog", "post", "posts", "writing", "written",
				"content", "copy", "copywriting", "documentation", "docs", "guide",
				"tutorial", "story", "book", "ebook", "whitepaper", "report", "paper",
				"essay", "document", "newsletter", "editorial", "press release",
				"case study", "manuscript",
			},
		},
		{
			Category:    core.CategoryDesign,
			Icon:        "🎨",
			Description: "Visual and interaction design: mockups, UI/UX, branding, illustration",
			Keywords: []string{
				"design", "designed", "mockup", "mockups", "ui", "ux", "interface",
				"wireframe", "wireframes", "prototype", "figma", "sketch", "graphic",
				"graphics", "logo", "brand", "branding", "illustration", "visual",
				"layout", "typography", "palette", "icon", "icons", "artwork",
				"photo", "photography", "style guide", "user experience",
			},
		},
		{
			Category:    core.CategoryCode,
			Icon:        "💻",
			Description: "Software: applications, websites, APIs, scripts, infrastructure and tooling",
			Keywords: []string{
				"code", "coding", "programming", "development", "developer", "software",
				"app", "application", "website", "web", "api", "backend", "frontend",
				"script", "function", "algorithm", "database", "server", "github",
				"repository", "repo", "commit", "pull request", "deploy", "deployment",
				"python", "javascript", "typescript", "java", "golang", "rust", "c++",
				"c#", "react", "node", "django", "sql", "ci", "pipeline", "test",
				"tests", "testing", "automated", "automation", "cli", "library", "sdk",
				"refactor", "bug", "docker", "kubernetes", "microservice",
			},
		},
		{
			Category:    core.CategoryMiscellaneous,
			Icon:        "🦄",
			Description: "Everything else: talks, workshops, research, strategy, community work",
			Keywords: []string{
				"workshop", "event", "podcast", "video", "presentation", "talk",
				"strategy", "consulting", "research", "mentoring", "community",
				"hackathon", "training",
			},
		},
	}
}

// InfoFor returns the CategoryInfo for c from DefaultCategories.
func InfoFor(c core.Category) CategoryInfo {
	for _, info := range DefaultCategories() {
		if info.Category == c {
			return info
		}
	}
	return CategoryInfo{Category: c}
}
