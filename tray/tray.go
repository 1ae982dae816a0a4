// Package tray puts an icon in the system tray while the automation runs,
// with a menu entry that triggers the emergency stop without the hotkey.
package tray

import (
	"github.com/getlantern/systray"
)

type Config struct {
	Title   string
	Tooltip string
	OnAbort func()
	OnExit  func()
}

type Icon struct {
	cfg Config
}

func New(cfg Config) (*Icon, error) {
	return &Icon{cfg: cfg}, nil
}

// Run blocks inside systray's event loop; call it on its own goroutine.
func (t *Icon) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Icon) Destroy() {
	systray.Quit()
}

func (t *Icon) onReady() {
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(t.cfg.Tooltip)

	mAbort := systray.AddMenuItem("Abort automation", "Trigger the emergency stop")
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mAbort.ClickedCh:
				if t.cfg.OnAbort != nil {
					t.cfg.OnAbort()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
			}
		}
	}()
}

func (t *Icon) onExit() {
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}
