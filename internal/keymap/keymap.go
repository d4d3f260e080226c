// Package keymap resolves key chords to semantic actions per input mode.
package keymap

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"
)

// Mode is the input context a key is resolved in
type Mode string

const (
	ModeGlobal      Mode = "global"
	ModeConnections Mode = "connections"
	ModeTables      Mode = "tables"
	ModeRecords     Mode = "records"
	ModeProperties  Mode = "properties"
	ModeFilter      Mode = "filter"
	ModeHelp        Mode = "help"
	ModeError       Mode = "error"
)

// Modes lists every mode in help order
var Modes = []Mode{ModeGlobal, ModeConnections, ModeTables, ModeRecords, ModeProperties, ModeFilter, ModeHelp, ModeError}

// Modal modes capture all keys and never fall back to global bindings
func (m Mode) Modal() bool {
	return m == ModeFilter || m == ModeHelp || m == ModeError
}

// ParseMode validates a mode name from a binding file
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ActionKind names a semantic action
type ActionKind string

const (
	Quit             ActionKind = "quit"
	Help             ActionKind = "help"
	Dismiss          ActionKind = "dismiss"
	Select           ActionKind = "select"
	FocusLeft        ActionKind = "focus_left"
	FocusRight       ActionKind = "focus_right"
	FocusConnections ActionKind = "focus_connections"
	MoveUp           ActionKind = "move_up"
	MoveDown         ActionKind = "move_down"
	MoveLeft         ActionKind = "move_left"
	MoveRight        ActionKind = "move_right"
	ExtendUp         ActionKind = "extend_up"
	ExtendDown       ActionKind = "extend_down"
	ExtendLeft       ActionKind = "extend_left"
	ExtendRight      ActionKind = "extend_right"
	ExtendLine       ActionKind = "extend_line"
	ScrollTop        ActionKind = "scroll_top"
	ScrollBottom     ActionKind = "scroll_bottom"
	LineHead         ActionKind = "line_head"
	LineTail         ActionKind = "line_tail"
	HalfPageDown     ActionKind = "half_page_down"
	HalfPageUp       ActionKind = "half_page_up"
	Sort             ActionKind = "sort"
	Filter           ActionKind = "filter"
	Copy             ActionKind = "copy"
	Refresh          ActionKind = "refresh"
	TabRecords       ActionKind = "tab_records"
	TabColumns       ActionKind = "tab_columns"
	TabConstraints   ActionKind = "tab_constraints"
	TabForeignKeys   ActionKind = "tab_foreign_keys"
	TabIndexes       ActionKind = "tab_indexes"
	WidenPanel       ActionKind = "widen_panel"
	NarrowPanel      ActionKind = "narrow_panel"
	Confirm          ActionKind = "confirm"
	InputRune        ActionKind = "input_rune"
	DeleteRune       ActionKind = "delete_rune"
	CursorLeft       ActionKind = "cursor_left"
	CursorRight      ActionKind = "cursor_right"
)

var actionKinds = []ActionKind{
	Quit, Help, Dismiss, Select, FocusLeft, FocusRight, FocusConnections,
	MoveUp, MoveDown, MoveLeft, MoveRight,
	ExtendUp, ExtendDown, ExtendLeft, ExtendRight, ExtendLine,
	ScrollTop, ScrollBottom, LineHead, LineTail, HalfPageDown, HalfPageUp,
	Sort, Filter, Copy, Refresh,
	TabRecords, TabColumns, TabConstraints, TabForeignKeys, TabIndexes,
	WidenPanel, NarrowPanel,
	Confirm, InputRune, DeleteRune, CursorLeft, CursorRight,
}

// ParseAction validates an action name from a binding file
func ParseAction(s string) (ActionKind, error) {
	for _, a := range actionKinds {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Action is a resolved key. Rune is set for InputRune.
type Action struct {
	Kind ActionKind
	Rune rune
}

// Binding maps a key chord in one mode to an action
type Binding struct {
	Mode   Mode
	Key    string
	Action ActionKind
}

// Keymap is an immutable-after-build binding table
type Keymap struct {
	bindings map[Mode]map[string]ActionKind
}

func newKeymap() *Keymap {
	return &Keymap{bindings: make(map[Mode]map[string]ActionKind)}
}

func (k *Keymap) bind(mode Mode, action ActionKind, keys ...string) {
	table, ok := k.bindings[mode]
	if !ok {
		table = make(map[string]ActionKind)
		k.bindings[mode] = table
	}
	for _, key := range keys {
		table[key] = action
	}
}

// Default returns the built-in bindings
func Default() *Keymap {
	k := newKeymap()

	k.bind(ModeGlobal, Quit, "q", "ctrl+c")
	k.bind(ModeGlobal, Help, "?")
	k.bind(ModeGlobal, Dismiss, "esc")
	k.bind(ModeGlobal, FocusLeft, "left")
	k.bind(ModeGlobal, FocusRight, "right")
	k.bind(ModeGlobal, FocusConnections, "c")
	k.bind(ModeGlobal, Refresh, "r")
	k.bind(ModeGlobal, NarrowPanel, "<")
	k.bind(ModeGlobal, WidenPanel, ">")

	for _, mode := range []Mode{ModeConnections, ModeTables} {
		k.bind(mode, MoveUp, "k", "up")
		k.bind(mode, MoveDown, "j", "down")
		k.bind(mode, ScrollTop, "g")
		k.bind(mode, ScrollBottom, "G")
		k.bind(mode, Select, "enter")
	}
	k.bind(ModeTables, HalfPageDown, "ctrl+d")
	k.bind(ModeTables, HalfPageUp, "ctrl+u")
	k.bind(ModeTables, Filter, "/")

	for _, mode := range []Mode{ModeRecords, ModeProperties} {
		k.bind(mode, MoveUp, "k", "up")
		k.bind(mode, MoveDown, "j", "down")
		k.bind(mode, MoveLeft, "h")
		k.bind(mode, MoveRight, "l")
		k.bind(mode, ScrollTop, "g")
		k.bind(mode, ScrollBottom, "G")
		k.bind(mode, LineHead, "^")
		k.bind(mode, LineTail, "$")
		k.bind(mode, HalfPageDown, "ctrl+d")
		k.bind(mode, HalfPageUp, "ctrl+u")
		k.bind(mode, Copy, "y")
		k.bind(mode, TabRecords, "1")
		k.bind(mode, TabColumns, "2")
		k.bind(mode, TabConstraints, "3")
		k.bind(mode, TabForeignKeys, "4")
		k.bind(mode, TabIndexes, "5")
	}
	k.bind(ModeRecords, ExtendUp, "K")
	k.bind(ModeRecords, ExtendDown, "J")
	k.bind(ModeRecords, ExtendLeft, "H")
	k.bind(ModeRecords, ExtendRight, "L")
	k.bind(ModeRecords, ExtendLine, "V")
	k.bind(ModeRecords, Sort, "s")
	k.bind(ModeRecords, Filter, "/")

	k.bind(ModeFilter, Confirm, "enter")
	k.bind(ModeFilter, Dismiss, "esc")
	k.bind(ModeFilter, DeleteRune, "backspace")
	k.bind(ModeFilter, CursorLeft, "left")
	k.bind(ModeFilter, CursorRight, "right")
	k.bind(ModeFilter, Quit, "ctrl+c")

	k.bind(ModeHelp, Dismiss, "esc", "?", "q")
	k.bind(ModeHelp, MoveUp, "k", "up")
	k.bind(ModeHelp, MoveDown, "j", "down")

	k.bind(ModeError, Dismiss, "esc", "enter")
	k.bind(ModeError, Quit, "ctrl+c")

	return k
}

// Merge returns a copy of k with overrides applied in order. An override
// replaces the binding of the same key in the same mode only.
func (k *Keymap) Merge(overrides []Binding) *Keymap {
	merged := newKeymap()
	for mode, table := range k.bindings {
		for key, action := range table {
			merged.bind(mode, action, key)
		}
	}
	for _, b := range overrides {
		merged.bind(b.Mode, b.Action, b.Key)
	}
	return merged
}

// Resolve maps key in mode to an action. Unbound keys resolve to nothing,
// except printable runes in filter mode which become text input.
func (k *Keymap) Resolve(mode Mode, key string) (Action, bool) {
	if action, ok := k.bindings[mode][key]; ok {
		return Action{Kind: action}, true
	}
	if mode == ModeFilter {
		if r, size := utf8.DecodeRuneInString(key); size == len(key) && r != utf8.RuneError && unicode.IsPrint(r) {
			return Action{Kind: InputRune, Rune: r}, true
		}
		return Action{}, false
	}
	if mode.Modal() || mode == ModeGlobal {
		return Action{}, false
	}
	if action, ok := k.bindings[ModeGlobal][key]; ok {
		return Action{Kind: action}, true
	}
	return Action{}, false
}

// Bindings lists the bindings of one mode ordered by action then key
func (k *Keymap) Bindings(mode Mode) []Binding {
	bindings := make([]Binding, 0, len(k.bindings[mode]))
	for key, action := range k.bindings[mode] {
		bindings = append(bindings, Binding{Mode: mode, Key: key, Action: action})
	}
	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Action != bindings[j].Action {
			return bindings[i].Action < bindings[j].Action
		}
		return bindings[i].Key < bindings[j].Key
	})
	return bindings
}

// KeysFor returns the keys bound to action in mode, sorted
func (k *Keymap) KeysFor(mode Mode, action ActionKind) []string {
	var keys []string
	for key, a := range k.bindings[mode] {
		if a == action {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func (m Mode) String() string {
	return string(m)
}
