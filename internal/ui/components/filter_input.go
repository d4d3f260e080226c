package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

// FilterTarget tells which panel a filter applies to
type FilterTarget int

const (
	FilterRecords FilterTarget = iota
	FilterTables
)

// FilterInput is the modal line editor for filter predicates
type FilterInput struct {
	Input  textinput.Model
	Target FilterTarget
	Theme  theme.Theme
	Width  int
}

// NewFilterInput creates a new filter input
func NewFilterInput(th theme.Theme) *FilterInput {
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 40

	return &FilterInput{
		Input: ti,
		Theme: th,
	}
}

// Open starts editing with value for target
func (f *FilterInput) Open(target FilterTarget, value string) {
	f.Target = target
	if target == FilterRecords {
		f.Input.Prompt = "WHERE "
		f.Input.Placeholder = "id > 10 AND name LIKE 'a%'"
	} else {
		f.Input.Prompt = "/ "
		f.Input.Placeholder = "table name, t: s: db: prefixes, ! negates"
	}
	f.Input.SetValue(value)
	f.Input.CursorEnd()
	f.Input.Focus()
}

// Close stops editing
func (f *FilterInput) Close() {
	f.Input.Blur()
}

// Value returns the edited text
func (f *FilterInput) Value() string {
	return f.Input.Value()
}

// Insert adds r at the cursor
func (f *FilterInput) Insert(r rune) {
	value := []rune(f.Input.Value())
	pos := f.Input.Position()
	if pos > len(value) {
		pos = len(value)
	}
	next := make([]rune, 0, len(value)+1)
	next = append(next, value[:pos]...)
	next = append(next, r)
	next = append(next, value[pos:]...)
	f.Input.SetValue(string(next))
	f.Input.SetCursor(pos + 1)
}

// Backspace deletes the rune before the cursor
func (f *FilterInput) Backspace() {
	value := []rune(f.Input.Value())
	pos := f.Input.Position()
	if pos == 0 || pos > len(value) {
		return
	}
	f.Input.SetValue(string(append(value[:pos-1:pos-1], value[pos:]...)))
	f.Input.SetCursor(pos - 1)
}

// MoveCursor moves the cursor by delta runes
func (f *FilterInput) MoveCursor(delta int) {
	f.Input.SetCursor(f.Input.Position() + delta)
}

// View renders the input box
func (f *FilterInput) View() string {
	inputWidth := f.Width - 12
	if inputWidth < 20 {
		inputWidth = 20
	}
	f.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(f.Theme.BorderFocused).
		Padding(0, 1).
		Width(f.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(f.Theme.Muted).
		Italic(true)

	help := "Enter: apply │ Esc: cancel │ empty clears the filter"
	return boxStyle.Render(f.Input.View() + "\n" + helpStyle.Render(help))
}
