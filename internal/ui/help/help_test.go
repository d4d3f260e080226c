package help

import (
	"strings"
	"testing"

	"github.com/rebeliceyang/lazydb/internal/keymap"
	"github.com/rebeliceyang/lazydb/internal/ui/theme"
)

func TestSectionGroupsKeysByAction(t *testing.T) {
	lines := Section(keymap.Default(), keymap.ModeTables)

	var moveDown *KeyBinding
	for i := range lines {
		if lines[i].Description == "Move down" {
			moveDown = &lines[i]
		}
	}
	if moveDown == nil {
		t.Fatal("expected a move down line")
	}
	if moveDown.Key != "down, j" {
		t.Errorf("expected keys 'down, j', got %q", moveDown.Key)
	}
}

func TestRenderReflectsOverrides(t *testing.T) {
	km := keymap.Default().Merge([]keymap.Binding{
		{Mode: keymap.ModeRecords, Key: "x", Action: keymap.Copy},
	})

	text := Render(km, theme.DefaultTheme())
	for _, want := range []string{"Global", "Records", "Filter Input", "Copy selection"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in help", want)
		}
	}

	found := false
	for _, kb := range Section(km, keymap.ModeRecords) {
		if kb.Description == "Copy selection" && kb.Key == "x, y" {
			found = true
		}
	}
	if !found {
		t.Error("expected overridden key next to the default one")
	}
}

func TestModelScrolls(t *testing.T) {
	m := New(keymap.Default(), theme.DefaultTheme())
	m.SetSize(80, 12)

	m.ScrollDown(3)
	if m.Offset() != 3 {
		t.Errorf("expected offset 3, got %d", m.Offset())
	}
	m.ScrollUp(1)
	if m.Offset() != 2 {
		t.Errorf("expected offset 2, got %d", m.Offset())
	}
	m.Reset()
	if m.Offset() != 0 {
		t.Errorf("expected offset 0 after reset, got %d", m.Offset())
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected title at the top")
	}
}
