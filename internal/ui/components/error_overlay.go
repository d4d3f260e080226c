package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

// ErrorOverlay is the modal shown for connection failures
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
}

// NewErrorOverlay creates a new error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Width: 60, Theme: th}
}

// SetError sets the content of the overlay
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the overlay box
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(e.Theme.Error)
	messageStyle := lipgloss.NewStyle().Foreground(e.Theme.Foreground).Width(e.Width - 4)
	hintStyle := lipgloss.NewStyle().Foreground(e.Theme.Muted).Italic(true)

	content := titleStyle.Render(e.Title) + "\n\n" +
		messageStyle.Render(e.Message) + "\n\n" +
		hintStyle.Render("Press Esc or Enter to dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(content)
}
