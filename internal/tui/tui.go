package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"necromancer/internal/categorization"
	"necromancer/internal/core"
)

var (
	docStyle      = lipgloss.NewStyle().Margin(1, 2)
	paneStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true).Padding(1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Model is a two pane browser over processed projects: a list on the left,
// the selected project's category and summary on the right.
type Model struct {
	projects []core.Project
	filter   core.Category // empty shows every category
	selected int           // index into visible()
	width    int
	height   int
	quitting bool
}

// NewModel returns a browser over projects, in their given order.
func NewModel(projects []core.Project) Model {
	return Model{projects: projects}
}

// Init is the first command that will be run. We don't need any for now.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model accordingly.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.visible())-1 {
				m.selected++
			}
		case "g", "home":
			m.selected = 0
		case "G", "end":
			if n := len(m.visible()); n > 0 {
				m.selected = n - 1
			}
		case "tab":
			m.filter = nextFilter(m.filter)
			m.selected = 0
		case "shift+tab":
			m.filter = prevFilter(m.filter)
			m.selected = 0
		}
	}

	return m, nil
}

// Selected returns the highlighted project, if any.
func (m Model) Selected() (core.Project, bool) {
	visible := m.visible()
	if m.selected < 0 || m.selected >= len(visible) {
		return core.Project{}, false
	}
	return visible[m.selected], true
}

// Filter returns the category currently shown; empty means all.
func (m Model) Filter() core.Category {
	return m.filter
}

func (m Model) visible() []core.Project {
	if m.filter == "" {
		return m.projects
	}
	var out []core.Project
	for _, p := range m.projects {
		if p.Category == m.filter {
			out = append(out, p)
		}
	}
	return out
}

// filters cycles all → each category → all.
var filters = append([]core.Category{""}, core.AllCategories()...)

func nextFilter(c core.Category) core.Category {
	for i, f := range filters {
		if f == c {
			return filters[(i+1)%len(filters)]
		}
	}
	return ""
}

func prevFilter(c core.Category) core.Category {
	for i, f := range filters {
		if f == c {
			return filters[(i+len(filters)-1)%len(filters)]
		}
	}
	return ""
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Quitting...\n"
	}

	width := m.width
	if width <= 0 {
		width = 100
	}
	paneWidth := width/2 - 5
	if paneWidth < 20 {
		paneWidth = 20
	}

	leftPane := paneStyle.Width(paneWidth).Render(m.listView())
	rightPane := paneStyle.Width(paneWidth).Render(m.detailView())
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	help := helpStyle.Render("\n\n[↑/k] Up | [↓/j] Down | [tab] Category | [q] Quit")

	return docStyle.Render(mainContent + help)
}

func (m Model) listView() string {
	var b strings.Builder
	name := "All categories"
	if m.filter != "" {
		name = m.filter.DisplayName()
	}
	visible := m.visible()
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s (%d)", name, len(visible))))
	b.WriteString("\n\n")

	if len(visible) == 0 {
		b.WriteString("No projects to show.")
		return b.String()
	}
	for i, p := range visible {
		line := fmt.Sprintf("%s %s", categorization.InfoFor(p.Category).Icon, p.Title)
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) detailView() string {
	p, ok := m.Selected()
	if !ok {
		return "Nothing selected."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(p.Title))
	b.WriteString("\n\n")
	field := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label+": ") + value + "\n")
	}
	field("Category", fmt.Sprintf("%s (%.0f%%, %s)", p.Category.DisplayName(), p.Confidence*100, p.ClassifiedBy))
	field("Source", string(p.Source))
	if !p.Date.IsZero() {
		field("Date", p.Date.Format("Jan 2, 2006"))
	}
	field("Client", p.Client)
	field("Tags", strings.Join(p.Tags, ", "))
	field("Links", strings.Join(p.Links, " "))
	b.WriteString("\n")
	b.WriteString(p.Summary)
	if p.SummarizedBy != "" {
		b.WriteString(labelStyle.Render(fmt.Sprintf("\n\n(summary: %s)", p.SummarizedBy)))
	}
	return b.String()
}

// Run starts the browser on the alternate screen and blocks until the user
// quits.
func Run(projects []core.Project) error {
	p := tea.NewProgram(NewModel(projects), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
