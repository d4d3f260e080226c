package app

import (
	"github.com/rebeliceyang/lazydb/internal/keymap"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// Focus is the panel that receives navigation actions
type Focus int

const (
	FocusConnections Focus = iota
	FocusTables
	FocusRecords
)

// Modal is an overlay that captures every key while open
type Modal int

const (
	ModalFilter Modal = iota
	ModalHelp
	ModalError
)

// State is the navigation state derived from focus, the modal stack and the
// active connection
type State int

const (
	StateNoConnection State = iota
	StateConnectionList
	StateTableList
	StateRecordView
	StateFilterInput
	StateHelpOverlay
	StateErrorOverlay
)

func (s State) String() string {
	switch s {
	case StateNoConnection:
		return "no connection"
	case StateConnectionList:
		return "connection list"
	case StateTableList:
		return "table list"
	case StateRecordView:
		return "record view"
	case StateFilterInput:
		return "filter input"
	case StateHelpOverlay:
		return "help overlay"
	case StateErrorOverlay:
		return "error overlay"
	default:
		return "unknown"
	}
}

// view is one tab of one table. Views live in a flat map keyed by their id;
// nothing holds a pointer to another view.
type view struct {
	id    string
	conn  string
	table models.TableRef
	tab   models.Tab

	// grid is the record table of the Records tab or the rendered catalog
	// section of a metadata tab
	grid    *models.RecordTable
	err     error
	loading bool
}

// session is what the UI knows about one connection slot
type session struct {
	descriptor models.ConnectionDescriptor
	state      models.ConnectionState
	databases  []models.Database
	catalogErr error
	loading    bool

	// table and tab select the view shown in the right panel
	table *models.TableRef
	tab   models.Tab
}

// State returns the current navigation state
func (a *App) State() State {
	if n := len(a.modals); n > 0 {
		switch a.modals[n-1] {
		case ModalFilter:
			return StateFilterInput
		case ModalHelp:
			return StateHelpOverlay
		default:
			return StateErrorOverlay
		}
	}
	if a.active == "" {
		if len(a.sessions) == 0 {
			return StateNoConnection
		}
		return StateConnectionList
	}
	switch a.focus {
	case FocusTables:
		return StateTableList
	case FocusRecords:
		return StateRecordView
	default:
		return StateConnectionList
	}
}

// Mode returns the keymap mode for the current state
func (a *App) Mode() keymap.Mode {
	switch a.State() {
	case StateFilterInput:
		return keymap.ModeFilter
	case StateHelpOverlay:
		return keymap.ModeHelp
	case StateErrorOverlay:
		return keymap.ModeError
	case StateTableList:
		return keymap.ModeTables
	case StateRecordView:
		if a.Tab() == models.TabRecords {
			return keymap.ModeRecords
		}
		return keymap.ModeProperties
	default:
		return keymap.ModeConnections
	}
}

// Tab returns the tab shown for the active connection
func (a *App) Tab() models.Tab {
	if s := a.current(); s != nil {
		return s.tab
	}
	return models.TabRecords
}

func (a *App) pushModal(m Modal) {
	a.modals = append(a.modals, m)
}

func (a *App) popModal() (Modal, bool) {
	n := len(a.modals)
	if n == 0 {
		return 0, false
	}
	top := a.modals[n-1]
	a.modals = a.modals[:n-1]
	return top, true
}

func (a *App) current() *session {
	if a.active == "" {
		return nil
	}
	return a.sessions[a.active]
}

// activeView returns the view shown in the right panel
func (a *App) activeView() *view {
	s := a.current()
	if s == nil || s.table == nil {
		return nil
	}
	return a.views[viewID(a.active, *s.table, s.tab)]
}

// activeGrid returns the grid of the active view
func (a *App) activeGrid() *models.RecordTable {
	if v := a.activeView(); v != nil {
		return v.grid
	}
	return nil
}
