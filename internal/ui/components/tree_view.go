package components

// TreeView renders the table list of the active connection.
//
// Features:
//   - Tree rendering with Unicode icons (▾ expanded, ▸ collapsed, • table)
//   - Cursor movement driven by keymap actions
//   - Automatic viewport scrolling for large trees
//   - A filter mode that shows matching nodes as a flat list
//
// Usage:
//
//	root := models.BuildDatabaseTree(databases)
//	treeView := components.NewTreeView(root, theme)
//	treeView.Width = 40
//	treeView.Height = 20
//
//	if table := treeView.Activate(); table != nil {
//		// open the table
//	}

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

// TreeView represents a visual tree component for displaying hierarchical data
type TreeView struct {
	Root         *models.TreeNode // Root node of the tree
	CursorIndex  int              // Current cursor position in the visible list
	Width        int              // Display width
	Height       int              // Display height
	Theme        theme.Theme      // Color theme
	ScrollOffset int              // Vertical scroll offset for viewport

	filter  string
	matches []*models.TreeNode
}

// NewTreeView creates a new tree view component
func NewTreeView(root *models.TreeNode, theme theme.Theme) *TreeView {
	return &TreeView{
		Root:   root,
		Width:  40,
		Height: 20,
		Theme:  theme,
	}
}

// SetRoot replaces the tree, keeping the cursor on the same node when it survives
func (tv *TreeView) SetRoot(root *models.TreeNode) {
	var current string
	if node := tv.GetCurrentNode(); node != nil {
		current = node.ID
	}
	tv.Root = root
	tv.CursorIndex = 0
	tv.ScrollOffset = 0
	tv.SetFilter(tv.filter)
	if current != "" {
		tv.SetCursorToNode(current)
	}
}

// Filter returns the active filter text
func (tv *TreeView) Filter() string {
	return tv.filter
}

// SetFilter narrows the list to matching nodes; empty restores the tree
func (tv *TreeView) SetFilter(filter string) {
	tv.filter = filter
	tv.matches = nil
	if filter != "" && tv.Root != nil {
		tv.matches = FilterTree(tv.Root, ParseSearchQuery(filter))
	}
	tv.CursorIndex = 0
	tv.ScrollOffset = 0
}

func (tv *TreeView) visibleNodes() []*models.TreeNode {
	if tv.Root == nil {
		return nil
	}
	if tv.filter != "" {
		return tv.matches
	}
	return tv.Root.Flatten()
}

// MoveCursor moves the cursor by delta, stopping at both ends
func (tv *TreeView) MoveCursor(delta int) {
	nodes := tv.visibleNodes()
	if len(nodes) == 0 {
		return
	}
	tv.CursorIndex += delta
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}
	if tv.CursorIndex >= len(nodes) {
		tv.CursorIndex = len(nodes) - 1
	}
}

// Top jumps to the first node
func (tv *TreeView) Top() {
	tv.CursorIndex = 0
	tv.ScrollOffset = 0
}

// Bottom jumps to the last node
func (tv *TreeView) Bottom() {
	tv.CursorIndex = len(tv.visibleNodes()) - 1
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}
}

// HalfPage moves the cursor by half a viewport in direction dir (+1 or -1)
func (tv *TreeView) HalfPage(dir int) {
	step := tv.viewHeight() / 2
	if step < 1 {
		step = 1
	}
	tv.MoveCursor(dir * step)
}

// Activate toggles the node under the cursor and returns its table, if any.
// In filter mode a non-table match clears the filter and reveals the node.
func (tv *TreeView) Activate() *models.TableRef {
	node := tv.GetCurrentNode()
	if node == nil {
		return nil
	}
	if node.Type == models.TreeNodeTypeTable {
		return node.Table
	}
	if tv.filter != "" {
		for p := node.Parent; p != nil; p = p.Parent {
			p.Expanded = true
		}
		node.Expanded = true
		tv.SetFilter("")
		tv.SetCursorToNode(node.ID)
		return nil
	}
	node.Toggle()
	return nil
}

func (tv *TreeView) viewHeight() int {
	h := tv.Height
	if tv.filter != "" {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the tree as a string
func (tv *TreeView) View() string {
	if tv.Root == nil || len(tv.Root.Children) == 0 {
		return tv.emptyState("No tables")
	}

	visibleNodes := tv.visibleNodes()

	var header string
	if tv.filter != "" {
		header = lipgloss.NewStyle().Foreground(tv.Theme.Info).
			Render(fmt.Sprintf("/ %s (%d)", tv.filter, len(visibleNodes))) + "\n"
		if len(visibleNodes) == 0 {
			return header + tv.emptyState("No matches")
		}
	}

	// Ensure cursor is within bounds
	if tv.CursorIndex >= len(visibleNodes) {
		tv.CursorIndex = len(visibleNodes) - 1
	}
	if tv.CursorIndex < 0 {
		tv.CursorIndex = 0
	}

	viewHeight := tv.viewHeight()
	tv.adjustScrollOffset(len(visibleNodes), viewHeight)

	endIdx := tv.ScrollOffset + viewHeight
	if endIdx > len(visibleNodes) {
		endIdx = len(visibleNodes)
	}

	lines := make([]string, 0, viewHeight)
	for i := tv.ScrollOffset; i < endIdx; i++ {
		lines = append(lines, tv.renderNode(visibleNodes[i], i == tv.CursorIndex))
	}

	return header + strings.Join(lines, "\n")
}

// renderNode renders a single tree node with appropriate styling
func (tv *TreeView) renderNode(node *models.TreeNode, selected bool) string {
	// Root is depth 0 and never rendered; filtered lists are flat
	depth := node.GetDepth() - 1
	if depth < 0 || tv.filter != "" {
		depth = 0
	}
	indent := strings.Repeat("  ", depth)

	label := node.Label
	if tv.filter != "" && node.Table != nil {
		label = node.Table.String()
	}
	if node.Type != models.TreeNodeTypeTable {
		label += fmt.Sprintf(" (%d)", node.TableCount())
	}

	content := fmt.Sprintf("%s%s %s", indent, tv.getNodeIcon(node), label)

	maxWidth := tv.Width
	if maxWidth < 1 {
		maxWidth = 1
	}
	if lipgloss.Width(content) > maxWidth {
		content = truncate(content, maxWidth)
	}

	style := lipgloss.NewStyle().Foreground(tv.Theme.Foreground).Width(maxWidth)
	if selected {
		style = style.Background(tv.Theme.Selection).Bold(true)
	}
	return style.Render(content)
}

// getNodeIcon returns the appropriate icon for a node
func (tv *TreeView) getNodeIcon(node *models.TreeNode) string {
	if node.Type == models.TreeNodeTypeTable {
		return "•"
	}
	if node.Expanded {
		return "▾"
	}
	return "▸"
}

// adjustScrollOffset adjusts the scroll offset to keep the cursor visible
func (tv *TreeView) adjustScrollOffset(totalNodes, viewHeight int) {
	if tv.CursorIndex < tv.ScrollOffset {
		tv.ScrollOffset = tv.CursorIndex
	}
	if tv.CursorIndex >= tv.ScrollOffset+viewHeight {
		tv.ScrollOffset = tv.CursorIndex - viewHeight + 1
	}

	if tv.ScrollOffset < 0 {
		tv.ScrollOffset = 0
	}
	maxScroll := totalNodes - viewHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	if tv.ScrollOffset > maxScroll {
		tv.ScrollOffset = maxScroll
	}
}

// emptyState returns the empty state view
func (tv *TreeView) emptyState(message string) string {
	width := tv.Width
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Width(width).
		Align(lipgloss.Center).
		Render(message)
}

// GetCurrentNode returns the node under the cursor
func (tv *TreeView) GetCurrentNode() *models.TreeNode {
	nodes := tv.visibleNodes()
	if tv.CursorIndex < 0 || tv.CursorIndex >= len(nodes) {
		return nil
	}
	return nodes[tv.CursorIndex]
}

// SetCursorToNode sets the cursor to a visible node by ID
func (tv *TreeView) SetCursorToNode(nodeID string) bool {
	for i, node := range tv.visibleNodes() {
		if node.ID == nodeID {
			tv.CursorIndex = i
			return true
		}
	}
	return false
}

// truncate shortens s to width columns, ending with an ellipsis
func truncate(s string, width int) string {
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
