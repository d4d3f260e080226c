package models

// CellPos addresses a cell by index into the loaded rows and columns
type CellPos struct {
	Row int
	Col int
}

// PageLoad is the paging side effect requested by a selection movement
type PageLoad int

const (
	LoadNone PageLoad = iota
	LoadNext
	LoadPrevious
)

// RecordTable is the in-memory grid bound to one table view. It holds the loaded
// window of rows, the sort and filter that produced it, and the selection range.
// The selection is always clamped to the loaded window; an empty window has no focus.
type RecordTable struct {
	Table         TableRef
	Columns       []string
	Rows          []Row
	Offset        int // absolute offset of Rows[0]
	HasMore       bool
	TotalEstimate *int64
	Sort          *SortSpec
	Filter        string
	MaxRetained   int

	// Loaded is false until the first page arrives and again after the sort
	// or filter changed and the replacement page has not arrived yet.
	Loaded      bool
	PendingNext bool
	PendingPrev bool

	anchor   CellPos
	focus    CellPos
	hasFocus bool

	// focusTarget is the absolute row that takes the focus when the next
	// replacement page lands
	focusTarget    int
	hasFocusTarget bool
}

// NewRecordTable creates an empty grid for table
func NewRecordTable(table TableRef, maxRetained int) *RecordTable {
	return &RecordTable{Table: table, MaxRetained: maxRetained}
}

// NewStaticTable wraps a complete string grid, e.g. a rendered catalog section
func NewStaticTable(table TableRef, headers []string, rows [][]string) *RecordTable {
	page := &ResultPage{Columns: headers, Rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		row := make(Row, len(r))
		for i, v := range r {
			row[i] = TextCell(v)
		}
		page.Rows = append(page.Rows, row)
	}
	rt := &RecordTable{Table: table}
	rt.SetPage(page)
	return rt
}

// RowCount returns the number of loaded rows
func (rt *RecordTable) RowCount() int {
	return len(rt.Rows)
}

// Cell returns the loaded cell at row, col
func (rt *RecordTable) Cell(row, col int) Cell {
	if row < 0 || row >= len(rt.Rows) || col < 0 || col >= len(rt.Rows[row]) {
		return Cell{}
	}
	return rt.Rows[row][col]
}

// Request returns the structured query that reproduces the grid
func (rt *RecordTable) Request() PageRequest {
	return PageRequest{Table: rt.Table, Filter: rt.Filter, Sort: rt.Sort}
}

// SetPage replaces the loaded rows with page
func (rt *RecordTable) SetPage(page *ResultPage) {
	target, hasTarget := rt.focusTarget, rt.hasFocusTarget
	rt.hasFocusTarget = false

	rt.Columns = page.Columns
	rt.Rows = page.Rows
	rt.Offset = page.Offset
	rt.HasMore = page.HasMore
	if page.TotalEstimate != nil || page.Offset == 0 {
		rt.TotalEstimate = page.TotalEstimate
	}
	rt.Loaded = true
	rt.PendingNext = false
	rt.PendingPrev = false

	if len(rt.Rows) == 0 || len(rt.Columns) == 0 {
		rt.ClearSelection()
		return
	}
	if !rt.hasFocus {
		rt.anchor = CellPos{}
		rt.focus = CellPos{}
		rt.hasFocus = true
	}
	if hasTarget {
		rt.focus = CellPos{Row: target - rt.Offset, Col: rt.focus.Col}
		rt.anchor = rt.focus
	}
	rt.clamp()
}

// SetFocusTarget moves the focus to the absolute row abs once the next
// replacement page arrives
func (rt *RecordTable) SetFocusTarget(abs int) {
	rt.focusTarget = abs
	rt.hasFocusTarget = true
}

// CancelPending forgets the page loads in flight, e.g. after they failed
func (rt *RecordTable) CancelPending() {
	rt.PendingNext = false
	rt.PendingPrev = false
	rt.hasFocusTarget = false
}

// AppendPage adds the rows of the next page, evicting the oldest rows once
// more than MaxRetained are held.
func (rt *RecordTable) AppendPage(page *ResultPage) {
	if !rt.Loaded {
		rt.SetPage(page)
		return
	}
	rt.Rows = append(rt.Rows, page.Rows...)
	rt.HasMore = page.HasMore
	rt.PendingNext = false

	if rt.MaxRetained > 0 && len(rt.Rows) > rt.MaxRetained {
		drop := len(rt.Rows) - rt.MaxRetained
		rows := make([]Row, rt.MaxRetained)
		copy(rows, rt.Rows[drop:])
		rt.Rows = rows
		rt.Offset += drop
		rt.anchor.Row -= drop
		rt.focus.Row -= drop
	}
	if !rt.hasFocus && len(rt.Rows) > 0 && len(rt.Columns) > 0 {
		rt.hasFocus = true
	}
	rt.clamp()
}

// Invalidate marks the loaded rows as outdated; they stay visible until replaced
func (rt *RecordTable) Invalidate() {
	rt.Loaded = false
	rt.CancelPending()
}

// ApplySort sets the sort spec and invalidates the page
func (rt *RecordTable) ApplySort(spec *SortSpec) {
	rt.Sort = spec
	rt.Invalidate()
}

// ApplyFilter sets the raw filter predicate and invalidates the page
func (rt *RecordTable) ApplyFilter(predicate string) {
	rt.Filter = predicate
	rt.Invalidate()
}

// NextSort returns the spec that follows the current one when the sort action
// is used on column col: none, ascending, descending, none again.
func (rt *RecordTable) NextSort(col int) *SortSpec {
	if col < 0 || col >= len(rt.Columns) {
		return rt.Sort
	}
	name := rt.Columns[col]
	if rt.Sort == nil || rt.Sort.Column != name {
		return &SortSpec{Column: name, Direction: Ascending}
	}
	if rt.Sort.Direction == Ascending {
		return &SortSpec{Column: name, Direction: Descending}
	}
	return nil
}

// Headers returns the column names with the sort indicator appended
func (rt *RecordTable) Headers() []string {
	headers := make([]string, len(rt.Columns))
	for i, c := range rt.Columns {
		headers[i] = c
		if rt.Sort != nil && rt.Sort.Column == c {
			if rt.Sort.Direction == Ascending {
				headers[i] = c + " ↑"
			} else {
				headers[i] = c + " ↓"
			}
		}
	}
	return headers
}

// Focus returns the focus cell, false when nothing is focused
func (rt *RecordTable) Focus() (CellPos, bool) {
	return rt.focus, rt.hasFocus
}

// Anchor returns the fixed corner of the selection
func (rt *RecordTable) Anchor() (CellPos, bool) {
	return rt.anchor, rt.hasFocus
}

// ClearSelection drops the focus cell
func (rt *RecordTable) ClearSelection() {
	rt.anchor = CellPos{}
	rt.focus = CellPos{}
	rt.hasFocus = false
}

// Selection returns the selected rectangle as inclusive bounds
func (rt *RecordTable) Selection() (top, left, bottom, right int, ok bool) {
	if !rt.hasFocus {
		return 0, 0, 0, 0, false
	}
	top, bottom = order(rt.anchor.Row, rt.focus.Row)
	left, right = order(rt.anchor.Col, rt.focus.Col)
	return top, left, bottom, right, true
}

// IsSelected reports whether the cell at row, col lies in the selection
func (rt *RecordTable) IsSelected(row, col int) bool {
	top, left, bottom, right, ok := rt.Selection()
	return ok && row >= top && row <= bottom && col >= left && col <= right
}

// MoveFocus moves the focus by the given delta and collapses the selection to it
func (rt *RecordTable) MoveFocus(dRow, dCol int) PageLoad {
	if !rt.hasFocus {
		return LoadNone
	}
	load := rt.pageLoadFor(rt.focus.Row+dRow, true)
	rt.focus.Row += dRow
	rt.focus.Col += dCol
	rt.clamp()
	rt.anchor = rt.focus
	return load
}

// Extend moves the focus by the given delta while the anchor stays fixed
func (rt *RecordTable) Extend(dRow, dCol int) PageLoad {
	if !rt.hasFocus {
		return LoadNone
	}
	load := rt.pageLoadFor(rt.focus.Row+dRow, false)
	rt.focus.Row += dRow
	rt.focus.Col += dCol
	rt.clamp()
	return load
}

// ExtendLine stretches the selection over every column of the selected rows
func (rt *RecordTable) ExtendLine() {
	if !rt.hasFocus {
		return
	}
	rt.anchor.Col = 0
	rt.focus.Col = len(rt.Columns) - 1
	rt.clamp()
}

// MoveTo places the focus on an absolute loaded position, negative values count from the end
func (rt *RecordTable) MoveTo(row, col int) {
	if !rt.hasFocus {
		return
	}
	if row < 0 {
		row = len(rt.Rows) + row
	}
	if col < 0 {
		col = len(rt.Columns) + col
	}
	rt.focus = CellPos{Row: row, Col: col}
	rt.clamp()
	rt.anchor = rt.focus
}

// MoveToColumn keeps the row and jumps to col, negative values count from the end
func (rt *RecordTable) MoveToColumn(col int) {
	rt.MoveTo(rt.focus.Row, col)
}

// FocusValue returns the display string of the focus cell
func (rt *RecordTable) FocusValue() (string, bool) {
	if !rt.hasFocus {
		return "", false
	}
	return rt.Rows[rt.focus.Row][rt.focus.Col].Display, true
}

// SelectedGrid returns the display strings inside the selection rectangle
func (rt *RecordTable) SelectedGrid() [][]string {
	top, left, bottom, right, ok := rt.Selection()
	if !ok {
		return nil
	}
	grid := make([][]string, 0, bottom-top+1)
	for r := top; r <= bottom; r++ {
		line := make([]string, 0, right-left+1)
		for c := left; c <= right; c++ {
			line = append(line, rt.Rows[r][c].Display)
		}
		grid = append(grid, line)
	}
	return grid
}

func (rt *RecordTable) pageLoadFor(target int, allowPrevious bool) PageLoad {
	switch {
	case target >= len(rt.Rows) && rt.HasMore && !rt.PendingNext && rt.Loaded:
		rt.PendingNext = true
		return LoadNext
	case allowPrevious && target < 0 && rt.Offset > 0 && !rt.PendingPrev && rt.Loaded:
		rt.PendingPrev = true
		rt.SetFocusTarget(rt.Offset - 1)
		return LoadPrevious
	default:
		return LoadNone
	}
}

func (rt *RecordTable) clamp() {
	if len(rt.Rows) == 0 || len(rt.Columns) == 0 {
		rt.ClearSelection()
		return
	}
	rt.anchor = clampPos(rt.anchor, len(rt.Rows), len(rt.Columns))
	rt.focus = clampPos(rt.focus, len(rt.Rows), len(rt.Columns))
}

func clampPos(p CellPos, rows, cols int) CellPos {
	return CellPos{Row: clampInt(p.Row, 0, rows-1), Col: clampInt(p.Col, 0, cols-1)}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
