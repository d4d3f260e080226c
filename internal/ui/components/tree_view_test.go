package components

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

func databases(names ...string) []models.Database {
	dbs := make([]models.Database, 0, len(names))
	for _, name := range names {
		dbs = append(dbs, models.Database{
			Name:   name,
			Tables: []models.TableRef{{Database: name, Name: "t_" + name}},
		})
	}
	return dbs
}

func TestNewTreeView(t *testing.T) {
	root := models.NewTreeNode("root", models.TreeNodeTypeRoot, "Databases")
	tv := NewTreeView(root, theme.DefaultTheme())

	if tv.Root != root {
		t.Error("Root not set correctly")
	}
	if tv.CursorIndex != 0 {
		t.Errorf("Expected initial cursor index 0, got %d", tv.CursorIndex)
	}
}

func TestTreeView_EmptyState(t *testing.T) {
	tv := NewTreeView(nil, theme.DefaultTheme())

	if !strings.Contains(tv.View(), "No tables") {
		t.Error("Expected empty state message for nil root")
	}

	tv.SetRoot(models.BuildDatabaseTree(nil))
	if !strings.Contains(tv.View(), "No tables") {
		t.Error("Expected empty state message for empty root")
	}
}

func TestTreeView_Navigation(t *testing.T) {
	tv := NewTreeView(models.BuildDatabaseTree(databases("db1", "db2", "db3")), theme.DefaultTheme())

	tv.MoveCursor(1)
	if tv.CursorIndex != 1 {
		t.Errorf("Expected cursor at 1 after down, got %d", tv.CursorIndex)
	}
	tv.MoveCursor(5)
	if tv.CursorIndex != 2 {
		t.Errorf("Expected cursor to stay at 2 at bottom, got %d", tv.CursorIndex)
	}
	tv.MoveCursor(-5)
	if tv.CursorIndex != 0 {
		t.Errorf("Expected cursor at 0 at top, got %d", tv.CursorIndex)
	}
	tv.Bottom()
	if tv.CursorIndex != 2 {
		t.Errorf("Expected cursor at bottom, got %d", tv.CursorIndex)
	}
	tv.Top()
	if tv.CursorIndex != 0 {
		t.Errorf("Expected cursor at top, got %d", tv.CursorIndex)
	}
}

func TestTreeView_ActivateTogglesAndSelects(t *testing.T) {
	tv := NewTreeView(models.BuildDatabaseTree(databases("db1", "db2")), theme.DefaultTheme())

	if table := tv.Activate(); table != nil {
		t.Fatalf("database nodes must not open a table, got %v", table)
	}
	if !tv.GetCurrentNode().Expanded {
		t.Fatal("Expected db1 to expand")
	}

	tv.MoveCursor(1)
	table := tv.Activate()
	if table == nil || table.Name != "t_db1" {
		t.Fatalf("Expected t_db1, got %v", table)
	}

	tv.MoveCursor(-1)
	tv.Activate()
	if len(tv.Root.Flatten()) != 2 {
		t.Error("Expected db1 to collapse again")
	}
}

func TestTreeView_FilterShowsFlatMatches(t *testing.T) {
	root := models.BuildDatabaseTree([]models.Database{{
		Name: "app",
		Tables: []models.TableRef{
			{Database: "app", Schema: "public", Name: "users"},
			{Database: "app", Schema: "audit", Name: "user_events"},
			{Database: "app", Schema: "public", Name: "teams"},
		},
	}})
	tv := NewTreeView(root, theme.DefaultTheme())
	tv.Width = 60
	tv.Height = 10

	tv.SetFilter("user")
	view := tv.View()
	if !strings.Contains(view, "app.audit.user_events") {
		t.Error("Expected qualified name of a match in a collapsed schema")
	}
	if strings.Contains(view, "teams") {
		t.Error("Expected teams to be filtered out")
	}

	tv.MoveCursor(1)
	table := tv.Activate()
	if table == nil || table.Name != "user_events" {
		t.Fatalf("Expected user_events, got %v", table)
	}
}

func TestTreeView_FilterRevealsSchema(t *testing.T) {
	root := models.BuildDatabaseTree([]models.Database{{
		Name: "app",
		Tables: []models.TableRef{
			{Database: "app", Schema: "public", Name: "users"},
			{Database: "app", Schema: "audit", Name: "events"},
		},
	}})
	tv := NewTreeView(root, theme.DefaultTheme())

	tv.SetFilter("s:audit")
	if tv.Activate() != nil {
		t.Fatal("schema nodes must not open a table")
	}
	if tv.Filter() != "" {
		t.Error("Expected filter to be cleared")
	}
	node := tv.GetCurrentNode()
	if node == nil || node.Label != "audit" || !node.Expanded {
		t.Errorf("Expected cursor on the expanded audit schema, got %+v", node)
	}
}

func TestTreeView_SetRootKeepsCursor(t *testing.T) {
	tv := NewTreeView(models.BuildDatabaseTree(databases("a", "b", "c")), theme.DefaultTheme())
	tv.MoveCursor(2)

	tv.SetRoot(models.BuildDatabaseTree(databases("a", "b", "c", "d")))

	if node := tv.GetCurrentNode(); node == nil || node.Label != "c" {
		t.Errorf("Expected cursor to stay on c, got %+v", node)
	}
}

func TestTreeView_ViewportScrolling(t *testing.T) {
	names := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		names = append(names, fmt.Sprintf("db%02d", i))
	}
	tv := NewTreeView(models.BuildDatabaseTree(databases(names...)), theme.DefaultTheme())
	tv.Width = 30
	tv.Height = 10

	tv.Bottom()
	view := tv.View()

	if !strings.Contains(view, "db29") {
		t.Error("Expected the last database to be visible")
	}
	if strings.Contains(view, "db00") {
		t.Error("Expected the first database to be scrolled out")
	}
	if tv.ScrollOffset != 20 {
		t.Errorf("Expected scroll offset 20, got %d", tv.ScrollOffset)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("expected abc…, got %q", got)
	}
}
