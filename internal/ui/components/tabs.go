package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

// RenderTabBar renders the table view tabs with their numeric shortcuts
func RenderTabBar(active models.Tab, th theme.Theme) string {
	tabViews := make([]string, 0, len(models.Tabs))

	for i, tab := range models.Tabs {
		label := fmt.Sprintf("[%d] %s", i+1, tab)

		var style lipgloss.Style
		if tab == active {
			style = lipgloss.NewStyle().
				Foreground(th.Background).
				Background(th.Info).
				Bold(true).
				Padding(0, 1)
		} else {
			style = lipgloss.NewStyle().
				Foreground(th.Foreground).
				Background(th.Selection).
				Padding(0, 1)
		}

		tabViews = append(tabViews, style.Render(label))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, tabViews...)
}
