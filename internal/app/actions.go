package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazydb/internal/config"
	"github.com/rebeliceyang/lazydb/internal/db/driver"
	"github.com/rebeliceyang/lazydb/internal/db/query"
	"github.com/rebeliceyang/lazydb/internal/export"
	"github.com/rebeliceyang/lazydb/internal/keymap"
	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/components"
)

const panelStep = 5

// dispatch applies one resolved action to the state
func (a *App) dispatch(action keymap.Action) tea.Cmd {
	switch a.State() {
	case StateFilterInput:
		return a.handleFilter(action)
	case StateHelpOverlay:
		a.handleHelp(action)
		return nil
	case StateErrorOverlay:
		switch action.Kind {
		case keymap.Dismiss:
			a.popModal()
			a.focus = FocusConnections
		case keymap.Quit:
			return tea.Quit
		}
		return nil
	}

	switch action.Kind {
	case keymap.Quit:
		return tea.Quit
	case keymap.Help:
		a.help.Reset()
		a.pushModal(ModalHelp)
		return nil
	case keymap.Dismiss:
		// nothing to dismiss outside modal states
		return nil
	case keymap.FocusLeft:
		a.moveFocus(-1)
		return nil
	case keymap.FocusRight:
		a.moveFocus(1)
		return nil
	case keymap.FocusConnections:
		a.focus = FocusConnections
		return nil
	case keymap.WidenPanel:
		a.leftPercent = config.ClampPanelPercent(a.leftPercent + panelStep)
		return nil
	case keymap.NarrowPanel:
		a.leftPercent = config.ClampPanelPercent(a.leftPercent - panelStep)
		return nil
	case keymap.Refresh:
		a.refresh()
		return nil
	}

	switch a.focus {
	case FocusConnections:
		a.handleConnections(action)
	case FocusTables:
		a.handleTables(action)
	case FocusRecords:
		return a.handleRecords(action)
	}
	return nil
}

func (a *App) moveFocus(delta int) {
	if a.active == "" {
		a.focus = FocusConnections
		return
	}
	next := a.focus + Focus(delta)
	if next < FocusConnections {
		next = FocusConnections
	}
	if next > FocusRecords {
		next = FocusRecords
	}
	if next == FocusRecords && a.current().table == nil {
		next = FocusTables
	}
	a.focus = next
}

func (a *App) handleHelp(action keymap.Action) {
	switch action.Kind {
	case keymap.Dismiss:
		a.popModal()
	case keymap.MoveUp:
		a.help.ScrollUp(1)
	case keymap.MoveDown:
		a.help.ScrollDown(1)
	}
}

func (a *App) handleConnections(action keymap.Action) {
	switch action.Kind {
	case keymap.MoveUp:
		a.connectionList.MoveSelection(-1)
	case keymap.MoveDown:
		a.connectionList.MoveSelection(1)
	case keymap.ScrollTop:
		a.connectionList.Top()
	case keymap.ScrollBottom:
		a.connectionList.Bottom()
	case keymap.Select:
		if d, ok := a.connectionList.Selected(); ok {
			a.selectConnection(d)
		}
	}
}

// selectConnection switches to d, connecting it first when needed
func (a *App) selectConnection(d models.ConnectionDescriptor) {
	s, ok := a.sessions[d.ID]
	if ok && s.state == models.Connected {
		a.activate(d.ID)
		a.focus = FocusTables
		return
	}
	if ok && s.state == models.Connecting {
		return
	}
	a.connect(d)
}

func (a *App) connect(d models.ConnectionDescriptor) {
	s, ok := a.sessions[d.ID]
	if !ok {
		s = &session{descriptor: d}
		a.sessions[d.ID] = s
	}
	s.state = models.Connecting
	s.loading = true
	s.catalogErr = nil
	a.connectionList.SetState(d.ID, s.state)

	a.executor.Submit(query.Request{
		View:       query.ConnView(d.ID),
		Kind:       query.KindConnect,
		Conn:       d.ID,
		Descriptor: d,
	})
}

// activate makes conn the connection shown in the panels
func (a *App) activate(conn string) {
	previous := a.active
	if previous == conn {
		return
	}
	a.active = conn
	s := a.sessions[conn]
	a.treeView.SetFilter("")
	a.treeView.SetRoot(models.BuildDatabaseTree(s.databases))

	if previous != "" && a.config.General.CloseOnSwitch {
		a.closeConnection(previous)
	}
}

// closeConnection tears down the slot of conn and forgets its views
func (a *App) closeConnection(conn string) {
	a.dropViews(conn)
	delete(a.sessions, conn)
	a.connectionList.SetState(conn, models.Disconnected)
	a.executor.Submit(query.Request{
		View: query.ConnView(conn),
		Kind: query.KindDisconnect,
		Conn: conn,
	})
}

func (a *App) dropViews(conn string) {
	for id, v := range a.views {
		if v.conn == conn {
			if v.loading {
				a.executor.Cancel(id)
			}
			delete(a.views, id)
		}
	}
}

func (a *App) handleTables(action keymap.Action) {
	switch action.Kind {
	case keymap.MoveUp:
		a.treeView.MoveCursor(-1)
	case keymap.MoveDown:
		a.treeView.MoveCursor(1)
	case keymap.ScrollTop:
		a.treeView.Top()
	case keymap.ScrollBottom:
		a.treeView.Bottom()
	case keymap.HalfPageDown:
		a.treeView.HalfPage(1)
	case keymap.HalfPageUp:
		a.treeView.HalfPage(-1)
	case keymap.Filter:
		a.filterInput.Open(components.FilterTables, a.treeView.Filter())
		a.pushModal(ModalFilter)
	case keymap.Select:
		if table := a.treeView.Activate(); table != nil {
			a.openTable(*table)
		}
	}
}

// openTable shows the Records tab of table
func (a *App) openTable(table models.TableRef) {
	s := a.current()
	if s == nil {
		return
	}
	a.leaveActiveView()
	s.table = &table
	s.tab = models.TabRecords
	a.focus = FocusRecords
	a.ensureView()
}

// switchTab shows tab of the open table. A loaded view is reused as is.
func (a *App) switchTab(tab models.Tab) {
	s := a.current()
	if s == nil || s.table == nil || s.tab == tab {
		return
	}
	a.leaveActiveView()
	s.tab = tab
	a.ensureView()
}

// leaveActiveView cancels the work of the view that is about to be hidden
func (a *App) leaveActiveView() {
	v := a.activeView()
	if v == nil || !v.loading {
		return
	}
	a.executor.Cancel(v.id)
	v.loading = false
	if v.grid != nil {
		v.grid.CancelPending()
	}
}

// ensureView creates the active view and loads it unless it already holds data
func (a *App) ensureView() {
	s := a.current()
	id := viewID(a.active, *s.table, s.tab)
	v, ok := a.views[id]
	if !ok {
		v = &view{id: id, conn: a.active, table: *s.table, tab: s.tab}
		if s.tab == models.TabRecords {
			v.grid = models.NewRecordTable(*s.table, a.config.General.MaxRetainedRows)
		}
		a.views[id] = v
	}
	if v.loading {
		return
	}
	if s.tab == models.TabRecords {
		if !v.grid.Loaded {
			a.loadRecords(v, 0, query.PageReplace)
		}
		return
	}
	if v.grid == nil {
		a.loadSection(v)
	}
}

func (a *App) loadRecords(v *view, offset int, mode query.PageMode) {
	v.loading = true
	v.err = nil
	a.executor.Submit(query.Request{
		View:   v.id,
		Kind:   query.KindRecords,
		Conn:   v.conn,
		Table:  v.table,
		Page:   v.grid.Request(),
		Offset: offset,
		Mode:   mode,
	})
}

func (a *App) loadSection(v *view) {
	v.loading = true
	v.err = nil
	a.executor.Submit(query.Request{
		View:  v.id,
		Kind:  query.KindForTab(v.tab),
		Conn:  v.conn,
		Table: v.table,
	})
}

func (a *App) handleRecords(action keymap.Action) tea.Cmd {
	switch action.Kind {
	case keymap.TabRecords:
		a.switchTab(models.TabRecords)
		return nil
	case keymap.TabColumns:
		a.switchTab(models.TabColumns)
		return nil
	case keymap.TabConstraints:
		a.switchTab(models.TabConstraints)
		return nil
	case keymap.TabForeignKeys:
		a.switchTab(models.TabForeignKeys)
		return nil
	case keymap.TabIndexes:
		a.switchTab(models.TabIndexes)
		return nil
	}

	v := a.activeView()
	if v == nil || v.grid == nil {
		return nil
	}
	rt := v.grid
	half := a.tableView.VisibleRows() / 2
	if half < 1 {
		half = 1
	}

	var load models.PageLoad
	switch action.Kind {
	case keymap.MoveUp:
		load = rt.MoveFocus(-1, 0)
	case keymap.MoveDown:
		load = rt.MoveFocus(1, 0)
	case keymap.MoveLeft:
		rt.MoveFocus(0, -1)
	case keymap.MoveRight:
		rt.MoveFocus(0, 1)
	case keymap.ExtendUp:
		load = rt.Extend(-1, 0)
	case keymap.ExtendDown:
		load = rt.Extend(1, 0)
	case keymap.ExtendLeft:
		rt.Extend(0, -1)
	case keymap.ExtendRight:
		rt.Extend(0, 1)
	case keymap.ExtendLine:
		rt.ExtendLine()
	case keymap.HalfPageDown:
		load = rt.MoveFocus(half, 0)
	case keymap.HalfPageUp:
		load = rt.MoveFocus(-half, 0)
	case keymap.ScrollTop:
		if v.tab == models.TabRecords && rt.Offset > 0 {
			rt.SetFocusTarget(0)
			a.loadRecords(v, 0, query.PageReplace)
			return nil
		}
		rt.MoveTo(0, focusCol(rt))
	case keymap.ScrollBottom:
		rt.MoveTo(-1, focusCol(rt))
	case keymap.LineHead:
		rt.MoveToColumn(0)
	case keymap.LineTail:
		rt.MoveToColumn(-1)
	case keymap.Copy:
		return a.copySelection(rt)
	case keymap.Sort:
		if focus, ok := rt.Focus(); ok && v.tab == models.TabRecords {
			rt.ApplySort(rt.NextSort(focus.Col))
			a.loadRecords(v, 0, query.PageReplace)
		}
		return nil
	case keymap.Filter:
		if v.tab == models.TabRecords {
			a.filterInput.Open(components.FilterRecords, rt.Filter)
			a.pushModal(ModalFilter)
		}
		return nil
	}

	if v.tab != models.TabRecords {
		return nil
	}
	switch load {
	case models.LoadNext:
		a.loadRecords(v, rt.Offset+rt.RowCount(), query.PageAppend)
	case models.LoadPrevious:
		offset := rt.Offset - a.pageSize()
		if offset < 0 {
			offset = 0
		}
		a.loadRecords(v, offset, query.PageReplace)
	}
	return nil
}

func focusCol(rt *models.RecordTable) int {
	focus, _ := rt.Focus()
	return focus.Col
}

func (a *App) pageSize() int {
	if s := a.current(); s != nil && s.descriptor.PageSize > 0 {
		return s.descriptor.PageSize
	}
	return a.config.General.PageSize
}

// copySelection writes the focus cell, or the selected rectangle in the
// configured format, to the clipboard. Nothing is copied without a focus cell.
func (a *App) copySelection(rt *models.RecordTable) tea.Cmd {
	grid := rt.SelectedGrid()
	if grid == nil {
		return nil
	}

	var text string
	cells := len(grid) * len(grid[0])
	if cells == 1 {
		text, _ = rt.FocusValue()
	} else {
		_, left, _, right, _ := rt.Selection()
		var err error
		text, err = export.Grid(a.format, rt.Columns[left:right+1], grid)
		if err != nil {
			return func() tea.Msg { return ClipboardMsg{Err: err} }
		}
	}

	cb := a.clipboard
	return func() tea.Msg {
		return ClipboardMsg{Cells: cells, Err: cb.WriteAll(text)}
	}
}

func (a *App) handleFilter(action keymap.Action) tea.Cmd {
	switch action.Kind {
	case keymap.InputRune:
		a.filterInput.Insert(action.Rune)
	case keymap.DeleteRune:
		a.filterInput.Backspace()
	case keymap.CursorLeft:
		a.filterInput.MoveCursor(-1)
	case keymap.CursorRight:
		a.filterInput.MoveCursor(1)
	case keymap.Dismiss:
		a.filterInput.Close()
		a.popModal()
	case keymap.Confirm:
		a.filterInput.Close()
		a.popModal()
		a.applyFilter(a.filterInput.Target, a.filterInput.Value())
	case keymap.Quit:
		return tea.Quit
	}
	return nil
}

func (a *App) applyFilter(target components.FilterTarget, value string) {
	if target == components.FilterTables {
		a.treeView.SetFilter(value)
		return
	}
	v := a.activeView()
	if v == nil || v.tab != models.TabRecords {
		return
	}
	v.grid.ApplyFilter(value)
	a.loadRecords(v, 0, query.PageReplace)
}

// refresh reloads what the focused panel shows. A slot that lost its link is
// reconnected instead.
func (a *App) refresh() {
	s := a.current()
	if a.focus == FocusConnections {
		d, ok := a.connectionList.Selected()
		if !ok {
			return
		}
		s = a.sessions[d.ID]
		if s == nil || s.state == models.Connected {
			return
		}
	}
	if s == nil {
		return
	}
	if s.state == models.ReconnectRequired || s.state == models.Failed {
		a.connect(s.descriptor)
		return
	}

	if a.focus == FocusRecords {
		if v := a.activeView(); v != nil && v.tab == models.TabRecords {
			v.grid.Invalidate()
			a.loadRecords(v, 0, query.PageReplace)
			return
		}
	}

	// catalog refresh drops every metadata tab of the connection
	for id, v := range a.views {
		if v.conn == s.descriptor.ID && v.tab != models.TabRecords {
			if v.loading {
				a.executor.Cancel(id)
			}
			delete(a.views, id)
		}
	}
	a.loadCatalog(s, true)
}

func (a *App) loadCatalog(s *session, refresh bool) {
	s.loading = true
	s.catalogErr = nil
	a.executor.Submit(query.Request{
		View:    query.ConnView(s.descriptor.ID),
		Kind:    query.KindCatalog,
		Conn:    s.descriptor.ID,
		Refresh: refresh,
	})
}

// applyResult folds one executor result into the state
func (a *App) applyResult(res query.Result) {
	// superseded and locally canceled work is never current; a current
	// canceled outcome came from the server and is shown like any failure
	if !a.executor.Current(res.View, res.Seq) {
		return
	}

	if driver.IsConnectionLost(res.Err) {
		if s, ok := a.sessions[res.Conn]; ok && s.state == models.Connected {
			s.state = models.ReconnectRequired
			a.connectionList.SetState(res.Conn, s.state)
		}
	}

	switch res.Kind {
	case query.KindConnect:
		a.applyConnect(res)
	case query.KindDisconnect:
		if res.Err != nil {
			a.logger.Warn("disconnect failed", "connection", res.Conn, "error", res.Err)
		}
	case query.KindCatalog:
		a.applyCatalog(res)
	case query.KindRecords:
		a.applyRecords(res)
	default:
		a.applySection(res)
	}
}

func (a *App) applyConnect(res query.Result) {
	s, ok := a.sessions[res.Conn]
	if !ok {
		return
	}
	s.loading = false

	if res.Err != nil {
		s.state = models.Failed
		a.connectionList.SetState(res.Conn, s.state)
		title := "Connection Error"
		var ce *driver.ConnectionError
		if errors.As(res.Err, &ce) {
			title = "Connection Error: " + ce.Kind.String()
		}
		a.focus = FocusConnections
		a.ShowError(title, res.Err.Error())
		return
	}

	s.state = models.Connected
	a.connectionList.SetState(res.Conn, s.state)
	// a new client starts with no loaded views
	a.dropViews(res.Conn)
	a.loadCatalog(s, false)

	if a.active != res.Conn {
		a.activate(res.Conn)
	}
	if a.focus == FocusConnections {
		a.focus = FocusTables
	}
}

func (a *App) applyCatalog(res query.Result) {
	s, ok := a.sessions[res.Conn]
	if !ok {
		return
	}
	s.loading = false
	if res.Err != nil {
		s.catalogErr = res.Err
		return
	}
	s.catalogErr = nil
	s.databases = res.Databases
	if res.Conn == a.active {
		a.treeView.SetRoot(models.BuildDatabaseTree(s.databases))
		if s.table != nil {
			a.ensureView()
		}
	}
}

func (a *App) applyRecords(res query.Result) {
	v, ok := a.views[res.View]
	if !ok {
		return
	}
	v.loading = false
	if res.Err != nil {
		v.err = res.Err
		v.grid.CancelPending()
		return
	}
	v.err = nil
	if res.Mode == query.PageAppend {
		v.grid.AppendPage(res.Page)
	} else {
		v.grid.SetPage(res.Page)
	}
}

func (a *App) applySection(res query.Result) {
	v, ok := a.views[res.View]
	if !ok {
		return
	}
	v.loading = false
	if res.Err != nil {
		v.err = res.Err
		return
	}
	v.err = nil
	headers, rows := res.Schema.Grid(v.tab)
	v.grid = models.NewStaticTable(v.table, headers, rows)
}
