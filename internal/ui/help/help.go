// Package help renders the key binding reference of the active keymap.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/keymap"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

var sectionTitles = map[keymap.Mode]string{
	keymap.ModeGlobal:      "Global",
	keymap.ModeConnections: "Connections",
	keymap.ModeTables:      "Tables",
	keymap.ModeRecords:     "Records",
	keymap.ModeProperties:  "Properties",
	keymap.ModeFilter:      "Filter Input",
	keymap.ModeHelp:        "Help",
	keymap.ModeError:       "Error",
}

var descriptions = map[keymap.ActionKind]string{
	keymap.Quit:             "Quit application",
	keymap.Help:             "Toggle help",
	keymap.Dismiss:          "Close / back",
	keymap.Select:           "Select item",
	keymap.FocusLeft:        "Focus left panel",
	keymap.FocusRight:       "Focus right panel",
	keymap.FocusConnections: "Show connections",
	keymap.MoveUp:           "Move up",
	keymap.MoveDown:         "Move down",
	keymap.MoveLeft:         "Move left",
	keymap.MoveRight:        "Move right",
	keymap.ExtendUp:         "Extend selection up",
	keymap.ExtendDown:       "Extend selection down",
	keymap.ExtendLeft:       "Extend selection left",
	keymap.ExtendRight:      "Extend selection right",
	keymap.ExtendLine:       "Select whole rows",
	keymap.ScrollTop:        "Go to first row",
	keymap.ScrollBottom:     "Go to last row",
	keymap.LineHead:         "Go to first column",
	keymap.LineTail:         "Go to last column",
	keymap.HalfPageDown:     "Half page down",
	keymap.HalfPageUp:       "Half page up",
	keymap.Sort:             "Cycle sort on column",
	keymap.Filter:           "Filter",
	keymap.Copy:             "Copy selection",
	keymap.Refresh:          "Refresh current view",
	keymap.TabRecords:       "Records tab",
	keymap.TabColumns:       "Columns tab",
	keymap.TabConstraints:   "Constraints tab",
	keymap.TabForeignKeys:   "Foreign keys tab",
	keymap.TabIndexes:       "Indexes tab",
	keymap.WidenPanel:       "Widen left panel",
	keymap.NarrowPanel:      "Narrow left panel",
	keymap.Confirm:          "Apply",
	keymap.InputRune:        "Type",
	keymap.DeleteRune:       "Delete character",
	keymap.CursorLeft:       "Cursor left",
	keymap.CursorRight:      "Cursor right",
}

// Description returns the help text of an action
func Description(action keymap.ActionKind) string {
	if d, ok := descriptions[action]; ok {
		return d
	}
	return string(action)
}

// KeyBinding is one line of the reference: every key of an action in a mode
type KeyBinding struct {
	Key         string
	Description string
}

// Section lists the bindings of one mode grouped by action
func Section(km *keymap.Keymap, mode keymap.Mode) []KeyBinding {
	var lines []KeyBinding
	seen := map[keymap.ActionKind]bool{}
	for _, b := range km.Bindings(mode) {
		if seen[b.Action] {
			continue
		}
		seen[b.Action] = true
		lines = append(lines, KeyBinding{
			Key:         strings.Join(km.KeysFor(mode, b.Action), ", "),
			Description: Description(b.Action),
		})
	}
	return lines
}

// Model is the scrollable help overlay
type Model struct {
	viewport viewport.Model
	theme    theme.Theme
	width    int
	height   int
}

// New renders the reference for km into a scrollable overlay
func New(km *keymap.Keymap, th theme.Theme) *Model {
	m := &Model{theme: th}
	m.viewport = viewport.New(0, 0)
	m.viewport.SetContent(Render(km, th))
	return m
}

// SetSize fits the overlay into the terminal
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	// border + padding + footer
	m.viewport.Width = max(width-8, 10)
	m.viewport.Height = max(height-8, 3)
}

// ScrollUp scrolls the reference by n lines
func (m *Model) ScrollUp(n int) {
	m.viewport.LineUp(n)
}

// ScrollDown scrolls the reference by n lines
func (m *Model) ScrollDown(n int) {
	m.viewport.LineDown(n)
}

// Reset scrolls back to the top
func (m *Model) Reset() {
	m.viewport.GotoTop()
}

// Offset returns the first visible line
func (m *Model) Offset() int {
	return m.viewport.YOffset
}

// View renders the overlay
func (m *Model) View() string {
	footer := lipgloss.NewStyle().
		Foreground(m.theme.Muted).
		Faint(true).
		Render(fmt.Sprintf("j/k scroll, ? or Esc to close  %3.f%%", m.viewport.ScrollPercent()*100))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.theme.BorderFocused).
		Padding(1, 2)

	return boxStyle.Render(m.viewport.View() + "\n" + footer)
}

// Render creates the full reference text
func Render(km *keymap.Keymap, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazydb - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, mode := range keymap.Modes {
		lines := Section(km, mode)
		if len(lines) == 0 {
			continue
		}
		b.WriteString(sectionStyle.Render(sectionTitles[mode]))
		b.WriteString("\n")
		for _, kb := range lines {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
