// Package uiauto abstracts the desktop surface the workflow drives. The
// orchestrator only sees the Driver interface, so its state machine runs
// against a fake in tests and against robotgo in production.
package uiauto

import "image"

// Driver is the set of desktop capabilities the workflow needs.
type Driver interface {
	// CaptureScreen captures the full primary display.
	CaptureScreen() (image.Image, error)

	// ActiveWindowTitle returns the title of the currently focused window.
	ActiveWindowTitle() (string, error)

	// ActivateWindow brings the window whose title matches name to the front.
	ActivateWindow(name string) error

	// MinimizeAll minimizes every window to expose the desktop.
	MinimizeAll() error

	// MoveClick glides the pointer to (x, y) and clicks there; double
	// selects a double click.
	MoveClick(x, y int, double bool) error

	// Click clicks at the current pointer position.
	Click() error

	// KeyCombo presses key while holding mods, e.g. KeyCombo("v", "ctrl").
	KeyCombo(key string, mods ...string) error

	// KeyTap presses a single key, e.g. "enter".
	KeyTap(key string) error

	// WriteClipboard replaces the system clipboard text.
	WriteClipboard(text string) error

	// OpenPath opens a file with the OS default handler.
	OpenPath(path string) error
}
