package app

import "github.com/atotto/clipboard"

// Clipboard receives copied cell values
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}
