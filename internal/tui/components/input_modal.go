package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/homestead/internal/tui/styles"
)

const inputModalWidth = 44

// InputModal asks for one line of text, such as a new display name
type InputModal struct {
	visible bool
	title   string
	err     string
	input   textinput.Model
}

// NewInputModal creates a hidden input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.CharLimit = 60
	ti.Width = inputModalWidth - 6
	ti.Prompt = "> "
	ti.PromptStyle = styles.AccentStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{input: ti}
}

// Show opens the modal prefilled with value
func (m *InputModal) Show(title, value string) {
	m.visible = true
	m.title = title
	m.err = ""
	m.input.Placeholder = value
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.err = ""
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the trimmed input
func (m InputModal) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Update handles a key while the modal is open. The bool is true when a
// non-empty value was submitted.
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, FormKeys.Submit):
			if m.Value() == "" {
				m.err = "Cannot be empty"
				return m, nil, false
			}
			return m, nil, true
		case key.Matches(keyMsg, FormKeys.Cancel):
			m.Hide()
			return m, nil, false
		}
	}

	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the modal box
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	status := styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" save  ") +
		styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" cancel")
	if m.err != "" {
		status = styles.ErrorStyle.Render(m.err)
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(m.title),
		"",
		m.input.View(),
		"",
		status,
	)
	return styles.ModalStyle.Width(inputModalWidth).Render(body)
}
