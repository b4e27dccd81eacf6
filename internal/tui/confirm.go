package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel asks a yes/no question. Anything but an explicit yes is no.
type ConfirmModel struct {
	question string
	answer   bool
	done     bool
}

// NewConfirm returns a prompt for question.
func NewConfirm(question string) ConfirmModel {
	return ConfirmModel{question: question}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer, m.done = true, true
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.answer, m.done = false, true
	default:
		return m, nil
	}
	return m, tea.Quit
}

func (m ConfirmModel) View() string {
	if m.done {
		if m.answer {
			return fmt.Sprintf("%s yes\n", m.question)
		}
		return fmt.Sprintf("%s no\n", m.question)
	}
	return fmt.Sprintf("%s %s ", m.question, helpStyle.Render("[y/N]"))
}

// Answer reports whether the user said yes.
func (m ConfirmModel) Answer() bool {
	return m.answer
}

// Confirm runs the prompt inline on in/out.
func Confirm(question string, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(NewConfirm(question), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return final.(ConfirmModel).Answer(), nil
}
