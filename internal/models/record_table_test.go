package models

import (
	"fmt"
	"testing"
)

func intPage(offset, n int, hasMore bool, columns ...string) *ResultPage {
	if len(columns) == 0 {
		columns = []string{"id", "name"}
	}
	page := &ResultPage{Columns: columns, Offset: offset, HasMore: hasMore}
	for i := 0; i < n; i++ {
		row := make(Row, len(columns))
		for c := range columns {
			row[c] = TextCell(fmt.Sprintf("%d-%d", offset+i, c))
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}

func assertInBounds(t *testing.T, rt *RecordTable) {
	t.Helper()
	top, left, bottom, right, ok := rt.Selection()
	if !ok {
		return
	}
	if top < 0 || left < 0 || bottom >= len(rt.Rows) || right >= len(rt.Columns) || top > bottom || left > right {
		t.Fatalf("selection (%d,%d)-(%d,%d) outside %dx%d", top, left, bottom, right, len(rt.Rows), len(rt.Columns))
	}
}

func TestSetPageFocusesFirstCell(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 3, false))

	focus, ok := rt.Focus()
	if !ok || focus != (CellPos{}) {
		t.Errorf("expected focus at origin, got %v %v", focus, ok)
	}
	if !rt.Loaded {
		t.Error("expected table to be loaded")
	}
}

func TestEmptyPageClearsSelection(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 3, false))
	rt.MoveFocus(2, 1)

	rt.SetPage(intPage(0, 0, false))

	if _, ok := rt.Focus(); ok {
		t.Error("expected no focus after empty page")
	}
	if _, ok := rt.FocusValue(); ok {
		t.Error("expected no focus value")
	}
	if rt.SelectedGrid() != nil {
		t.Error("expected empty selection grid")
	}
}

func TestShrinkingPageReclampsSelection(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 10, false))
	rt.MoveTo(9, 1)

	rt.SetPage(intPage(0, 4, false))

	focus, _ := rt.Focus()
	if focus.Row != 3 {
		t.Errorf("expected focus clamped to row 3, got %d", focus.Row)
	}
	assertInBounds(t, rt)
}

func TestExtendStaysWithinBounds(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 5, false, "a", "b", "c"))

	moves := [][2]int{{1, 0}, {0, 1}, {10, 0}, {0, 10}, {-20, 0}, {0, -20}, {3, 2}, {1, 1}}
	for _, m := range moves {
		if load := rt.Extend(m[0], m[1]); load != LoadNone {
			t.Errorf("unexpected page load %v without more rows", load)
		}
		assertInBounds(t, rt)
	}
}

func TestExtendPastLastRowLoadsNextPageOnce(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 3, true))
	rt.MoveTo(-1, 0)

	loads := 0
	for i := 0; i < 3; i++ {
		if rt.Extend(1, 0) == LoadNext {
			loads++
		}
		assertInBounds(t, rt)
	}
	if loads != 1 {
		t.Fatalf("expected exactly one next page request, got %d", loads)
	}

	rt.AppendPage(intPage(3, 3, false))
	if rt.PendingNext {
		t.Error("expected pending flag cleared after append")
	}
	anchor, _ := rt.Anchor()
	if anchor.Row != 2 {
		t.Errorf("expected anchor to stay on row 2, got %d", anchor.Row)
	}
	if rt.Extend(1, 0) != LoadNone {
		t.Error("expected no load once the next page arrived")
	}
	top, _, bottom, _, _ := rt.Selection()
	if top != 2 || bottom != 3 {
		t.Errorf("expected selection to span rows 2..3, got %d..%d", top, bottom)
	}
}

func TestMoveUpFromFirstRowLoadsPreviousPage(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(200, 3, true))

	if rt.MoveFocus(-1, 0) != LoadPrevious {
		t.Fatal("expected previous page request")
	}
	if rt.MoveFocus(-1, 0) != LoadNone {
		t.Error("expected a single previous page request")
	}

	rt.SetPage(intPage(0, 200, true))
	focus, _ := rt.Focus()
	if focus.Row != 199 {
		t.Errorf("expected focus on last row of previous page, got %d", focus.Row)
	}
}

func TestPreviousPageFocusesRowAboveOldWindow(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 4)
	rt.SetPage(intPage(0, 3, true))
	rt.AppendPage(intPage(3, 3, true))
	if rt.Offset != 2 {
		t.Fatalf("expected eviction to offset 2, got %d", rt.Offset)
	}
	rt.MoveTo(0, 1)

	if rt.MoveFocus(-1, 0) != LoadPrevious {
		t.Fatal("expected previous page request")
	}
	// the caller asks for offset 2 - page size, clamped to 0
	rt.SetPage(intPage(0, 3, true))

	focus, _ := rt.Focus()
	if focus.Row != 1 || focus.Col != 1 {
		t.Errorf("expected focus on absolute row 1, got row %d col %d", focus.Row, focus.Col)
	}
	if value, _ := rt.FocusValue(); value != "1-1" {
		t.Errorf("expected value 1-1, got %q", value)
	}
}

func TestFocusTargetAppliesToNextReplacementOnly(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(400, 5, true))
	rt.MoveTo(3, 1)

	rt.SetFocusTarget(0)
	rt.SetPage(intPage(0, 5, true))
	focus, _ := rt.Focus()
	if focus.Row != 0 || focus.Col != 1 {
		t.Errorf("expected focus on row 0 col 1, got row %d col %d", focus.Row, focus.Col)
	}

	rt.MoveTo(3, 1)
	rt.SetPage(intPage(0, 5, true))
	if focus, _ := rt.Focus(); focus.Row != 3 {
		t.Errorf("expected focus to stay on row 3, got %d", focus.Row)
	}
}

func TestCancelPendingAllowsNewLoads(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(200, 3, true))

	if rt.MoveFocus(-1, 0) != LoadPrevious {
		t.Fatal("expected previous page request")
	}
	rt.CancelPending()
	if rt.MoveFocus(-1, 0) != LoadPrevious {
		t.Error("expected a new previous page request after cancel")
	}
}

func TestAppendEvictsBeyondMaxRetained(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 4)
	rt.SetPage(intPage(0, 3, true))
	rt.MoveTo(2, 0)

	rt.AppendPage(intPage(3, 3, false))

	if len(rt.Rows) != 4 {
		t.Fatalf("expected 4 retained rows, got %d", len(rt.Rows))
	}
	if rt.Offset != 2 {
		t.Errorf("expected offset 2, got %d", rt.Offset)
	}
	focus, _ := rt.Focus()
	if focus.Row != 0 {
		t.Errorf("expected focus shifted to row 0, got %d", focus.Row)
	}
	if v, _ := rt.FocusValue(); v != "2-0" {
		t.Errorf("expected focus to stay on the same record, got %q", v)
	}
}

func TestNextSortCycles(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 1, false))

	spec := rt.NextSort(1)
	if spec == nil || spec.Column != "name" || spec.Direction != Ascending {
		t.Fatalf("expected name ASC, got %+v", spec)
	}
	rt.ApplySort(spec)
	if rt.Loaded {
		t.Error("expected sort to invalidate the page")
	}
	if h := rt.Headers(); h[1] != "name ↑" || h[0] != "id" {
		t.Errorf("unexpected headers %v", h)
	}

	rt.ApplySort(rt.NextSort(1))
	if rt.Sort.Direction != Descending || rt.Headers()[1] != "name ↓" {
		t.Errorf("expected descending, got %+v", rt.Sort)
	}

	rt.ApplySort(rt.NextSort(1))
	if rt.Sort != nil {
		t.Errorf("expected no sort, got %+v", rt.Sort)
	}

	rt.ApplySort(rt.NextSort(0))
	if rt.Sort.Column != "id" || rt.Sort.Direction != Ascending {
		t.Errorf("expected a new column to start ascending, got %+v", rt.Sort)
	}
}

func TestExtendLineAndSelectedGrid(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 3, false, "a", "b", "c"))
	rt.MoveTo(1, 1)
	rt.Extend(1, 0)
	rt.ExtendLine()

	grid := rt.SelectedGrid()
	if len(grid) != 2 || len(grid[0]) != 3 {
		t.Fatalf("expected 2x3 grid, got %v", grid)
	}
	if grid[0][0] != "1-0" || grid[1][2] != "2-2" {
		t.Errorf("unexpected grid %v", grid)
	}
	if !rt.IsSelected(2, 0) || rt.IsSelected(0, 0) {
		t.Error("unexpected IsSelected result")
	}
}

func TestMoveToNegativeCountsFromEnd(t *testing.T) {
	rt := NewRecordTable(TableRef{Name: "users"}, 0)
	rt.SetPage(intPage(0, 4, false, "a", "b", "c"))

	rt.MoveTo(-1, -1)
	if focus, _ := rt.Focus(); focus != (CellPos{Row: 3, Col: 2}) {
		t.Errorf("expected bottom right, got %v", focus)
	}
	rt.MoveToColumn(0)
	if focus, _ := rt.Focus(); focus != (CellPos{Row: 3, Col: 0}) {
		t.Errorf("expected line head, got %v", focus)
	}
}

func TestStaticTable(t *testing.T) {
	rt := NewStaticTable(TableRef{Name: "users"}, []string{"name", "type"}, [][]string{{"id", "integer"}, {"name", "text"}})

	if rt.RowCount() != 2 || !rt.Loaded || rt.HasMore {
		t.Fatalf("unexpected static table state %+v", rt)
	}
	if rt.Cell(1, 1).Display != "text" {
		t.Errorf("expected text, got %q", rt.Cell(1, 1).Display)
	}
	if rt.Cell(5, 5).Display != "" {
		t.Error("expected zero cell outside the grid")
	}
	if rt.MoveFocus(5, 0) != LoadNone {
		t.Error("static tables never page")
	}
}
