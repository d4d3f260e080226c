package components

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazydb/internal/models"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

func descriptors() []models.ConnectionDescriptor {
	return []models.ConnectionDescriptor{
		{ID: "local", Name: "local", Engine: models.EngineSQLite, Path: "/tmp/app.db"},
		{ID: "prod", Name: "prod", Engine: models.EngineMySQL, Host: "db", Port: 3306, User: "root", Password: "secret"},
	}
}

func TestConnectionList_Selection(t *testing.T) {
	list := NewConnectionList(descriptors(), theme.DefaultTheme())

	list.MoveSelection(-1)
	if list.SelectedIndex != 0 {
		t.Errorf("expected selection to stay at 0, got %d", list.SelectedIndex)
	}
	list.MoveSelection(5)
	if list.SelectedIndex != 1 {
		t.Errorf("expected selection clamped to 1, got %d", list.SelectedIndex)
	}
	d, ok := list.Selected()
	if !ok || d.ID != "prod" {
		t.Errorf("expected prod selected, got %+v", d)
	}

	list.Top()
	if d, _ := list.Selected(); d.ID != "local" {
		t.Errorf("expected local after Top, got %s", d.ID)
	}
	list.Bottom()
	if list.SelectedIndex != 1 {
		t.Errorf("expected last index after Bottom, got %d", list.SelectedIndex)
	}
}

func TestConnectionList_ViewMasksPasswordAndShowsState(t *testing.T) {
	list := NewConnectionList(descriptors(), theme.DefaultTheme())
	list.Width = 80
	list.SetState("prod", models.ReconnectRequired)

	view := list.View()
	if strings.Contains(view, "secret") {
		t.Error("expected password to be masked")
	}
	if !strings.Contains(view, "[prod] mysql://root:******@db:3306") {
		t.Errorf("expected masked url in view, got:\n%s", view)
	}
	if !strings.Contains(view, "!") {
		t.Error("expected reconnect marker")
	}
}

func TestConnectionList_Empty(t *testing.T) {
	list := NewConnectionList(nil, theme.DefaultTheme())
	if _, ok := list.Selected(); ok {
		t.Error("expected no selection")
	}
	if !strings.Contains(list.View(), "No connections configured") {
		t.Error("expected empty placeholder")
	}
}
