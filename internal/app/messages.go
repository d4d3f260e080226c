package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazydb/internal/db/query"
	"github.com/rebeliceyang/lazydb/internal/models"
)

// ResultMsg carries one executor result into the update loop
type ResultMsg struct {
	query.Result
}

// ClipboardMsg reports the outcome of a copy
type ClipboardMsg struct {
	Cells int
	Err   error
}

// waitForResult blocks on the executor until the next result arrives. The
// update loop re-arms it after every result.
func waitForResult(results <-chan query.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-results
		if !ok {
			return nil
		}
		return ResultMsg{Result: res}
	}
}

func viewID(conn string, table models.TableRef, tab models.Tab) string {
	return query.TableView(conn, table, tab)
}
