package keymap

import "testing"

func TestDefaultBindingsResolve(t *testing.T) {
	k := Default()

	tests := []struct {
		mode Mode
		key  string
		want ActionKind
	}{
		{ModeConnections, "j", MoveDown},
		{ModeConnections, "enter", Select},
		{ModeTables, "k", MoveUp},
		{ModeTables, "/", Filter},
		{ModeRecords, "h", MoveLeft},
		{ModeRecords, "l", MoveRight},
		{ModeRecords, "J", ExtendDown},
		{ModeRecords, "K", ExtendUp},
		{ModeRecords, "H", ExtendLeft},
		{ModeRecords, "L", ExtendRight},
		{ModeRecords, "V", ExtendLine},
		{ModeRecords, "g", ScrollTop},
		{ModeRecords, "G", ScrollBottom},
		{ModeRecords, "^", LineHead},
		{ModeRecords, "$", LineTail},
		{ModeRecords, "ctrl+d", HalfPageDown},
		{ModeRecords, "ctrl+u", HalfPageUp},
		{ModeRecords, "s", Sort},
		{ModeRecords, "/", Filter},
		{ModeRecords, "y", Copy},
		{ModeRecords, "1", TabRecords},
		{ModeRecords, "2", TabColumns},
		{ModeRecords, "3", TabConstraints},
		{ModeRecords, "4", TabForeignKeys},
		{ModeRecords, "5", TabIndexes},
		{ModeProperties, "1", TabRecords},
		{ModeRecords, "left", FocusLeft},
		{ModeRecords, "right", FocusRight},
		{ModeRecords, "c", FocusConnections},
		{ModeRecords, "r", Refresh},
		{ModeRecords, "<", NarrowPanel},
		{ModeRecords, ">", WidenPanel},
		{ModeRecords, "?", Help},
		{ModeRecords, "q", Quit},
		{ModeRecords, "ctrl+c", Quit},
		{ModeFilter, "enter", Confirm},
		{ModeFilter, "esc", Dismiss},
		{ModeFilter, "backspace", DeleteRune},
		{ModeHelp, "esc", Dismiss},
		{ModeError, "enter", Dismiss},
	}

	for _, tt := range tests {
		got, ok := k.Resolve(tt.mode, tt.key)
		if !ok {
			t.Errorf("(%s, %q): expected %s, got nothing", tt.mode, tt.key, tt.want)
			continue
		}
		if got.Kind != tt.want {
			t.Errorf("(%s, %q): expected %s, got %s", tt.mode, tt.key, tt.want, got.Kind)
		}
	}
}

func TestEveryDefaultBindingResolvesToItself(t *testing.T) {
	k := Default()
	for _, mode := range Modes {
		for _, b := range k.Bindings(mode) {
			got, ok := k.Resolve(mode, b.Key)
			if !ok || got.Kind != b.Action {
				t.Errorf("(%s, %q): expected %s, got %v", mode, b.Key, b.Action, got)
			}
		}
	}
}

func TestOverrideWinsInItsModeOnly(t *testing.T) {
	k := Default().Merge([]Binding{{Mode: ModeTables, Key: "j", Action: Refresh}})

	got, _ := k.Resolve(ModeTables, "j")
	if got.Kind != Refresh {
		t.Errorf("expected override %s, got %s", Refresh, got.Kind)
	}
	got, _ = k.Resolve(ModeConnections, "j")
	if got.Kind != MoveDown {
		t.Errorf("expected connections j to stay %s, got %s", MoveDown, got.Kind)
	}
	got, _ = k.Resolve(ModeTables, "k")
	if got.Kind != MoveUp {
		t.Errorf("expected other tables keys to survive, got %s", got.Kind)
	}

	original, _ := Default().Resolve(ModeTables, "j")
	if original.Kind != MoveDown {
		t.Error("merge must not modify the source keymap")
	}
}

func TestLastOverrideWins(t *testing.T) {
	k := Default().Merge([]Binding{
		{Mode: ModeRecords, Key: "x", Action: Copy},
		{Mode: ModeRecords, Key: "x", Action: Sort},
	})
	got, _ := k.Resolve(ModeRecords, "x")
	if got.Kind != Sort {
		t.Errorf("expected %s, got %s", Sort, got.Kind)
	}
}

func TestUnboundKeysResolveToNothing(t *testing.T) {
	k := Default()
	if got, ok := k.Resolve(ModeRecords, "z"); ok {
		t.Errorf("expected no action, got %s", got.Kind)
	}
}

func TestModalModesDoNotFallBack(t *testing.T) {
	k := Default()
	if got, ok := k.Resolve(ModeHelp, "r"); ok {
		t.Errorf("help must not see global refresh, got %s", got.Kind)
	}
	if got, ok := k.Resolve(ModeError, "c"); ok {
		t.Errorf("error overlay must not see global focus, got %s", got.Kind)
	}
}

func TestFilterModeCapturesPrintableRunes(t *testing.T) {
	k := Default()

	for _, key := range []string{"q", "j", "?", " ", "é", "="} {
		got, ok := k.Resolve(ModeFilter, key)
		if !ok || got.Kind != InputRune {
			t.Errorf("%q: expected input_rune, got %v", key, got)
			continue
		}
		if string(got.Rune) != key {
			t.Errorf("%q: expected rune %q, got %q", key, key, got.Rune)
		}
	}

	if _, ok := k.Resolve(ModeFilter, "ctrl+x"); ok {
		t.Error("expected chords to stay unbound in filter mode")
	}
	got, _ := k.Resolve(ModeFilter, "left")
	if got.Kind != CursorLeft {
		t.Errorf("expected cursor_left, got %s", got.Kind)
	}
}

func TestParse(t *testing.T) {
	if m, err := ParseMode("tables"); err != nil || m != ModeTables {
		t.Errorf("ParseMode(tables) = %q, %v", m, err)
	}
	if _, err := ParseMode("nope"); err == nil {
		t.Error("expected error for unknown mode")
	}
	if a, err := ParseAction("extend_line"); err != nil || a != ExtendLine {
		t.Errorf("ParseAction(extend_line) = %q, %v", a, err)
	}
	if _, err := ParseAction("explode"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestKeysFor(t *testing.T) {
	keys := Default().KeysFor(ModeGlobal, Quit)
	if len(keys) != 2 || keys[0] != "ctrl+c" || keys[1] != "q" {
		t.Errorf("unexpected quit keys %v", keys)
	}
}
