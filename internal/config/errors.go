package config

import "fmt"

// ParseError reports an unusable config file
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid config: %v", e.Err)
	}
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// KeyBindingError reports an unusable keybinding file
type KeyBindingError struct {
	Path  string
	Entry int // 1-based, 0 when the file as a whole is invalid
	Err   error
}

func (e *KeyBindingError) Error() string {
	if e.Entry == 0 {
		return fmt.Sprintf("invalid keybindings %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid keybindings %s: entry %d: %v", e.Path, e.Entry, e.Err)
}

func (e *KeyBindingError) Unwrap() error {
	return e.Err
}
