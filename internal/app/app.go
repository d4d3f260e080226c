// Package app hosts the navigation state machine and adapts it to the
// Bubble Tea run loop.
package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazydb/internal/config"
	"github.com/rebeliceyang/lazydb/internal/db/query"
	"github.com/rebeliceyang/lazydb/internal/export"
	"github.com/rebeliceyang/lazydb/internal/keymap"
	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/components"
	"github.com/rebeliceyang/lazydb/internal/ui/help"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

// Options wires the App to its collaborators
type Options struct {
	Config    *config.Config
	Keymap    *keymap.Keymap
	Executor  *query.Executor
	Clipboard Clipboard
	Logger    *slog.Logger
}

// App is the main application model. It owns every piece of UI state;
// background work reports back through ResultMsg only.
type App struct {
	config    *config.Config
	keymap    *keymap.Keymap
	executor  *query.Executor
	clipboard Clipboard
	logger    *slog.Logger
	theme     theme.Theme
	format    export.Format

	width       int
	height      int
	leftPercent int

	focus  Focus
	modals []Modal

	active   string
	sessions map[string]*session
	views    map[string]*view

	status string

	connectionList *components.ConnectionList
	treeView       *components.TreeView
	tableView      *components.TableView
	filterInput    *components.FilterInput
	errorOverlay   *components.ErrorOverlay
	help           *help.Model
	spinner        spinner.Model
}

// New creates a new App instance
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	km := opts.Keymap
	if km == nil {
		km = keymap.Default()
	}
	cb := opts.Clipboard
	if cb == nil {
		cb = systemClipboard{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	format, err := export.ParseFormat(cfg.General.CopyFormat)
	if err != nil {
		format = export.FormatTSV
	}

	th := theme.GetTheme(cfg.UI.Theme)

	emptyRoot := models.BuildDatabaseTree(nil)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(th.Info)

	return &App{
		config:         cfg,
		keymap:         km,
		executor:       opts.Executor,
		clipboard:      cb,
		logger:         logger,
		theme:          th,
		format:         format,
		leftPercent:    config.ClampPanelPercent(cfg.UI.LeftPanelPercent),
		focus:          FocusConnections,
		sessions:       make(map[string]*session),
		views:          make(map[string]*view),
		connectionList: components.NewConnectionList(cfg.Connections, th),
		treeView:       components.NewTreeView(emptyRoot, th),
		tableView:      components.NewTableView(th),
		filterInput:    components.NewFilterInput(th),
		errorOverlay:   components.NewErrorOverlay(th),
		help:           help.New(km, th),
		spinner:        sp,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(waitForResult(a.executor.Results()), a.spinner.Tick)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		action, ok := a.keymap.Resolve(a.Mode(), msg.String())
		if !ok {
			return a, nil
		}
		return a, a.dispatch(action)

	case ResultMsg:
		a.applyResult(msg.Result)
		return a, waitForResult(a.executor.Results())

	case ClipboardMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("copy failed: %v", msg.Err)
		} else {
			a.status = fmt.Sprintf("copied %d cell(s)", msg.Cells)
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.SetSize(msg.Width, msg.Height)
	}
	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	if a.width <= 0 || a.height <= 0 {
		return ""
	}

	switch a.State() {
	case StateErrorOverlay:
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.errorOverlay.View())
	case StateHelpOverlay:
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.help.View())
	}

	return a.renderNormalView()
}

// renderNormalView renders both panels between the top and bottom bars
func (a *App) renderNormalView() string {
	leftWidth, rightWidth, contentHeight := a.panelDimensions()

	topBarLeft := "lazydb"
	if s := a.current(); s != nil {
		topBarLeft = fmt.Sprintf("lazydb  %s", s.descriptor.DisplayName())
	}
	topBar := lipgloss.NewStyle().
		Width(a.width).
		Background(a.theme.BorderFocused).
		Foreground(a.theme.Background).
		Padding(0, 2).
		Render(a.formatStatusBar(topBarLeft, a.Mode().String()))

	left := components.Panel{
		Width:   leftWidth,
		Height:  contentHeight,
		Theme:   a.theme,
		Focused: a.focus != FocusRecords,
	}
	if a.focus == FocusConnections || a.active == "" {
		left.Title = "Connections"
		a.connectionList.Width = leftWidth
		a.connectionList.Height = contentHeight - 1
		a.connectionList.Active = a.active
		left.Content = a.connectionList.View()
	} else {
		left.Title = a.loadingTitle("Tables", a.current().loading)
		a.treeView.Width = leftWidth
		a.treeView.Height = contentHeight - 1
		left.Content = a.treeView.View()
		if err := a.current().catalogErr; err != nil {
			left.Content = a.errorText(err)
		}
	}

	right := components.Panel{
		Width:   rightWidth,
		Height:  contentHeight,
		Theme:   a.theme,
		Focused: a.focus == FocusRecords,
	}
	right.Content = a.renderRightContent(rightWidth, contentHeight)

	panels := lipgloss.JoinHorizontal(lipgloss.Top, left.View(), right.View())

	bottom := a.status
	if a.State() == StateFilterInput {
		a.filterInput.Width = a.width - 4
		bottom = ""
		panels = lipgloss.JoinVertical(lipgloss.Left, panels, a.filterInput.View())
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottom, a.keyHints()))

	return lipgloss.JoinVertical(lipgloss.Left, topBar, panels, bottomBar)
}

func (a *App) renderRightContent(width, height int) string {
	s := a.current()
	if s == nil || s.table == nil {
		return lipgloss.NewStyle().Foreground(a.theme.Muted).Render("Select a table to view")
	}

	var b strings.Builder
	b.WriteString(components.RenderTabBar(s.tab, a.theme))
	b.WriteString("\n")

	v := a.activeView()
	if v != nil && v.loading {
		b.WriteString(a.spinner.View() + " Loading " + s.table.String() + "...\n")
	}
	if v != nil && v.err != nil {
		b.WriteString(a.errorText(v.err))
		b.WriteString("\n")
	}

	a.tableView.Width = width
	a.tableView.Height = height - 2
	var grid *models.RecordTable
	if v != nil {
		grid = v.grid
	}
	status := ""
	if s.tab == models.TabRecords {
		status = components.RecordStatus(grid, s.descriptor.Engine)
	}
	b.WriteString(a.tableView.View(grid, status))
	return b.String()
}

func (a *App) loadingTitle(title string, loading bool) string {
	if loading {
		return title + " " + a.spinner.View()
	}
	return title
}

func (a *App) errorText(err error) string {
	return lipgloss.NewStyle().Foreground(a.theme.Error).Render(err.Error())
}

// keyHints lists the keys of a few actions of the current mode
func (a *App) keyHints() string {
	mode := a.Mode()
	var hints []string
	for _, kind := range []keymap.ActionKind{keymap.Select, keymap.Filter, keymap.Confirm, keymap.Dismiss, keymap.Help, keymap.Quit} {
		keys := a.keymap.KeysFor(mode, kind)
		if len(keys) == 0 && !mode.Modal() {
			keys = a.keymap.KeysFor(keymap.ModeGlobal, kind)
		}
		if len(keys) > 0 {
			hints = append(hints, fmt.Sprintf("[%s] %s", keys[0], help.Description(kind)))
		}
	}
	return strings.Join(hints, " | ")
}

// panelDimensions calculates panel sizes based on window size
func (a *App) panelDimensions() (left, right, height int) {
	// top bar, bottom bar and the panel borders
	height = a.height - 4
	if a.State() == StateFilterInput {
		height -= 4
	}
	if height < 5 {
		height = 5
	}

	left = (a.width * a.leftPercent) / 100
	if left < 20 {
		left = 20
	}
	right = a.width - left - 4
	if right < 20 {
		right = 20
		left = a.width - right - 4
	}
	return left, right, height
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	availableWidth := a.width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)

	if leftLen+rightLen > availableWidth {
		if availableWidth > rightLen {
			return truncateRunes(left, availableWidth-rightLen) + right
		}
		return truncateRunes(left, availableWidth)
	}

	spacing := availableWidth - leftLen - rightLen
	return left + strings.Repeat(" ", spacing) + right
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ShowError displays the error overlay
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.pushModal(ModalError)
}
