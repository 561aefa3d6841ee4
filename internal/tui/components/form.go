package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/homestead/internal/tui/styles"
)

// FormResult is what a key press did to a form
type FormResult int

const (
	FormEditing FormResult = iota
	FormSubmitted
	FormCancelled
)

// Field describes one form input
type Field struct {
	Label       string
	Placeholder string
	Value       string
	Password    bool
	CharLimit   int
}

// Form is a vertical stack of labeled text inputs
type Form struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	err    string
}

// NewForm creates a form with the first field focused
func NewForm(title string, fields ...Field) *Form {
	f := &Form{title: title}
	for _, field := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = field.Placeholder
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		ti.CharLimit = 200
		if field.CharLimit > 0 {
			ti.CharLimit = field.CharLimit
		}
		if field.Password {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.SetValue(field.Value)

		f.labels = append(f.labels, field.Label)
		f.inputs = append(f.inputs, ti)
	}
	if len(f.inputs) > 0 {
		f.inputs[0].Focus()
	}
	return f
}

// Title returns the form heading
func (f *Form) Title() string {
	return f.title
}

// Update routes a message to the focused input
func (f *Form) Update(msg tea.Msg) (tea.Cmd, FormResult) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, FormKeys.Cancel):
			return nil, FormCancelled
		case key.Matches(keyMsg, FormKeys.Submit):
			if f.focus == len(f.inputs)-1 {
				return nil, FormSubmitted
			}
			f.setFocus(f.focus + 1)
			return nil, FormEditing
		case key.Matches(keyMsg, FormKeys.Next):
			f.setFocus((f.focus + 1) % len(f.inputs))
			return nil, FormEditing
		case key.Matches(keyMsg, FormKeys.Prev):
			f.setFocus((f.focus - 1 + len(f.inputs)) % len(f.inputs))
			return nil, FormEditing
		}
	}

	if len(f.inputs) == 0 {
		return nil, FormEditing
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd, FormEditing
}

// Value returns the trimmed value of field i
func (f *Form) Value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

// Values returns every trimmed value in field order
func (f *Form) Values() []string {
	out := make([]string, len(f.inputs))
	for i := range f.inputs {
		out[i] = f.Value(i)
	}
	return out
}

// Focused returns the index of the focused field
func (f *Form) Focused() int {
	return f.focus
}

// SetError shows a validation message under the fields
func (f *Form) SetError(msg string) {
	f.err = msg
}

// Err returns the current validation message
func (f *Form) Err() string {
	return f.err
}

func (f *Form) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

// View renders the form at the given width
func (f *Form) View(width int) string {
	inputWidth := max(width-16, 10)

	lines := []string{styles.ModalTitleStyle.Render(f.title)}
	for i, label := range f.labels {
		labelStyle := styles.FieldLabelStyle
		if i == f.focus {
			labelStyle = styles.FocusedFieldLabelStyle
		}
		in := f.inputs[i]
		in.Width = inputWidth
		lines = append(lines, labelStyle.Render(label)+" "+in.View())
	}
	if f.err != "" {
		lines = append(lines, "", styles.ErrorStyle.Render(f.err))
	}

	help := styles.HelpKeyStyle.Render("tab") + styles.HelpDescStyle.Render(" next  ") +
		styles.HelpKeyStyle.Render("enter") + styles.HelpDescStyle.Render(" submit  ") +
		styles.HelpKeyStyle.Render("esc") + styles.HelpDescStyle.Render(" cancel")
	lines = append(lines, "", help)

	return styles.ModalStyle.Render(strings.Join(lines, "\n"))
}
