package core

import "time"

// Owner describes the person the portfolio belongs to.
type Owner struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Title string `json:"title,omitempty"`
	Bio   string `json:"bio,omitempty"`
}

// PresentationOptions controls how the generator renders a portfolio.
type PresentationOptions struct {
	Theme          string `json:"theme"`
	ColorScheme    string `json:"color_scheme"`
	ShowWatermark  bool   `json:"show_watermark"`
	MaxProjects    int    `json:"max_projects"` // 0 means no cap
	CustomDomain   string `json:"custom_domain,omitempty"`
	CustomBranding bool   `json:"custom_branding"`
}

// Portfolio is the fully processed result handed to the generator.
type Portfolio struct {
	Owner       Owner               `json:"owner"`
	Projects    []Project           `json:"projects"`
	Options     PresentationOptions `json:"options"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Truncate keeps the first limit projects in their original order. A limit
// of zero or less leaves the portfolio untouched. It returns how many
// projects were dropped.
func (p *Portfolio) Truncate(limit int) int {
	if limit <= 0 || len(p.Projects) <= limit {
		return 0
	}
	dropped := len(p.Projects) - limit
	p.Projects = p.Projects[:limit:limit]
	return dropped
}

// ByCategory returns the projects filed under c, in portfolio order.
func (p *Portfolio) ByCategory(c Category) []Project {
	var out []Project
	for _, project := range p.Projects {
		if project.Category == c {
			out = append(out, project)
		}
	}
	return out
}

// CountByCategory returns the number of projects per category. Every known
// category is present in the map, possibly with a zero count.
func (p *Portfolio) CountByCategory() map[Category]int {
	counts := make(map[Category]int, len(AllCategories()))
	for _, c := range AllCategories() {
		counts[c] = 0
	}
	for _, project := range p.Projects {
		counts[project.Category]++
	}
	return counts
}
