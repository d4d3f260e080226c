package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

// ConnectionList renders the configured connections with their slot state
type ConnectionList struct {
	Width         int
	Height        int
	Theme         theme.Theme
	Descriptors   []models.ConnectionDescriptor
	SelectedIndex int
	ScrollOffset  int

	// States maps descriptor id to its slot state; missing ids are disconnected
	States map[string]models.ConnectionState
	// Active is the id of the connection whose tables are shown
	Active string
}

// NewConnectionList creates a new connection list
func NewConnectionList(descriptors []models.ConnectionDescriptor, th theme.Theme) *ConnectionList {
	return &ConnectionList{
		Theme:       th,
		Descriptors: descriptors,
		States:      make(map[string]models.ConnectionState),
	}
}

// Selected returns the descriptor under the cursor
func (c *ConnectionList) Selected() (models.ConnectionDescriptor, bool) {
	if c.SelectedIndex < 0 || c.SelectedIndex >= len(c.Descriptors) {
		return models.ConnectionDescriptor{}, false
	}
	return c.Descriptors[c.SelectedIndex], true
}

// MoveSelection moves the selection up or down
func (c *ConnectionList) MoveSelection(delta int) {
	if len(c.Descriptors) == 0 {
		c.SelectedIndex = 0
		return
	}
	c.SelectedIndex += delta
	if c.SelectedIndex < 0 {
		c.SelectedIndex = 0
	}
	if c.SelectedIndex >= len(c.Descriptors) {
		c.SelectedIndex = len(c.Descriptors) - 1
	}
}

// Top moves the selection to the first connection
func (c *ConnectionList) Top() {
	c.SelectedIndex = 0
}

// Bottom moves the selection to the last connection
func (c *ConnectionList) Bottom() {
	c.SelectedIndex = len(c.Descriptors) - 1
	if c.SelectedIndex < 0 {
		c.SelectedIndex = 0
	}
}

// SetState records the state of a slot
func (c *ConnectionList) SetState(id string, state models.ConnectionState) {
	c.States[id] = state
}

// View renders the connection list
func (c *ConnectionList) View() string {
	if len(c.Descriptors) == 0 {
		return lipgloss.NewStyle().
			Foreground(c.Theme.Muted).
			Italic(true).
			Render("No connections configured")
	}

	height := c.Height
	if height <= 0 {
		height = len(c.Descriptors)
	}
	if c.SelectedIndex < c.ScrollOffset {
		c.ScrollOffset = c.SelectedIndex
	}
	if c.SelectedIndex >= c.ScrollOffset+height {
		c.ScrollOffset = c.SelectedIndex - height + 1
	}

	end := c.ScrollOffset + height
	if end > len(c.Descriptors) {
		end = len(c.Descriptors)
	}

	lines := make([]string, 0, end-c.ScrollOffset)
	for i := c.ScrollOffset; i < end; i++ {
		lines = append(lines, c.renderLine(i))
	}
	return strings.Join(lines, "\n")
}

func (c *ConnectionList) renderLine(i int) string {
	d := c.Descriptors[i]
	state := c.States[d.ID]

	marker := " "
	markerStyle := lipgloss.NewStyle()
	switch state {
	case models.Connected:
		marker = "●"
		markerStyle = markerStyle.Foreground(c.Theme.Success)
	case models.Connecting:
		marker = "◌"
		markerStyle = markerStyle.Foreground(c.Theme.Info)
	case models.ReconnectRequired:
		marker = "!"
		markerStyle = markerStyle.Foreground(c.Theme.Warning)
	case models.Failed:
		marker = "✗"
		markerStyle = markerStyle.Foreground(c.Theme.Error)
	}

	label := truncate(fmt.Sprintf("%s (%s)", d.DisplayName(), d.Engine), c.Width-4)
	style := lipgloss.NewStyle().Foreground(c.Theme.Foreground)
	if d.ID == c.Active {
		style = style.Bold(true)
	}
	if i == c.SelectedIndex {
		style = style.Background(c.Theme.Selection)
		label = "> " + label
	} else {
		label = "  " + label
	}

	return markerStyle.Render(marker) + style.Render(label)
}
