package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazydb/internal/keymap"
)

type bindingEntry struct {
	Mode   string `yaml:"mode"`
	Key    string `yaml:"key"`
	Action string `yaml:"action"`
}

// LoadKeyBindings reads override bindings. An empty path reads
// keybindings.yaml from the config directory; a missing default file means
// no overrides, a missing explicit file is an error.
func LoadKeyBindings(path string) ([]keymap.Binding, error) {
	explicit := path != ""
	if !explicit {
		dir, err := Dir()
		if err != nil {
			return nil, nil
		}
		path = filepath.Join(dir, "keybindings.yaml")
	}
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &KeyBindingError{Path: path, Err: err}
	}

	var entries []bindingEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &KeyBindingError{Path: path, Err: err}
	}

	bindings := make([]keymap.Binding, 0, len(entries))
	for i, e := range entries {
		mode, err := keymap.ParseMode(e.Mode)
		if err != nil {
			return nil, &KeyBindingError{Path: path, Entry: i + 1, Err: err}
		}
		action, err := keymap.ParseAction(e.Action)
		if err != nil {
			return nil, &KeyBindingError{Path: path, Entry: i + 1, Err: err}
		}
		if e.Key == "" {
			return nil, &KeyBindingError{Path: path, Entry: i + 1, Err: fmt.Errorf("key is required")}
		}
		bindings = append(bindings, keymap.Binding{Mode: mode, Key: e.Key, Action: action})
	}
	return bindings, nil
}
