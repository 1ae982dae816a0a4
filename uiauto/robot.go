package uiauto

import (
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"desktop-autopilot/clipboard"
	"desktop-autopilot/screenshot"
)

// Robot injects input through robotgo. It assumes clipboard.Init has been
// called at startup.
type Robot struct{}

var _ Driver = (*Robot)(nil)

func NewRobot() *Robot {
	return &Robot{}
}

func (r *Robot) CaptureScreen() (image.Image, error) {
	return screenshot.Capture()
}

func (r *Robot) ActiveWindowTitle() (string, error) {
	title := robotgo.GetTitle()
	if title == "" {
		return "", fmt.Errorf("no active window title available")
	}
	return title, nil
}

func (r *Robot) ActivateWindow(name string) error {
	return robotgo.ActiveName(name)
}

// MinimizeAll sends Win+M, the "minimize all windows" shortcut.
func (r *Robot) MinimizeAll() error {
	return robotgo.KeyTap("m", "cmd")
}

func (r *Robot) MoveClick(x, y int, double bool) error {
	// Glide rather than teleport so the target app sees a plausible pointer.
	robotgo.MoveSmooth(x, y, 0.9, 0.9)
	robotgo.MilliSleep(150)
	robotgo.Click("left", double)
	return nil
}

func (r *Robot) Click() error {
	robotgo.Click("left", false)
	return nil
}

func (r *Robot) KeyCombo(key string, mods ...string) error {
	args := make([]interface{}, len(mods))
	for i, m := range mods {
		args[i] = m
	}
	return robotgo.KeyTap(key, args...)
}

func (r *Robot) KeyTap(key string) error {
	return robotgo.KeyTap(key)
}

func (r *Robot) WriteClipboard(text string) error {
	return clipboard.Write(text)
}
