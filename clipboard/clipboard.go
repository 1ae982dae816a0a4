package clipboard

import (
	"golang.design/x/clipboard"
)

// Init must be called once before Write; it fails when no system clipboard
// is reachable (e.g. headless environments).
func Init() error {
	return clipboard.Init()
}

// Write replaces the system clipboard text. Used both for the pasted post
// content and for injecting the destination path into the save dialog.
func Write(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
