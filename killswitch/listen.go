package killswitch

import (
	"fmt"
	"log"
	"strings"

	gohook "github.com/robotn/gohook"
)

// Windows virtual-key rawcodes for left/right modifier variants.
var modifierRawcodes = map[string][]uint16{
	"ctrl":  {162, 163},
	"shift": {160, 161},
	"alt":   {164, 165},
}

// Listen registers the global abort hotkey and triggers the switch when the
// full combination is observed. The listener runs on its own goroutine and
// does nothing but flip the flag; a dead listener only disables the hotkey,
// not the run, so failures are logged rather than returned.
func Listen(s *Switch, hotkeyConfig string) {
	mods, key, err := parseHotkey(hotkeyConfig)
	if err != nil {
		log.Printf("[INIT] Invalid abort hotkey %q: %v", hotkeyConfig, err)
		return
	}
	log.Printf("[INIT] Abort hotkey registered: %s", hotkeyConfig)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("ERROR: gohook.Start() returned nil channel")
			return
		}

		pressed := make(map[uint16]bool)
		for ev := range evChan {
			switch ev.Kind {
			case gohook.KeyDown:
				pressed[ev.Rawcode] = true
				if !s.Aborted() && combinationDown(pressed, mods, key) {
					log.Printf("[ABORT] Abort hotkey detected (%s)", hotkeyConfig)
					s.Trigger()
				}
			case gohook.KeyUp:
				delete(pressed, ev.Rawcode)
			}
		}
		log.Printf("Hotkey event channel closed")
	}()
}

// parseHotkey converts a string like "Ctrl+Shift+Q" into modifier rawcode
// pairs and the rawcode of the final non-modifier key. Letter keys map to
// their uppercase ASCII value, which matches the Windows virtual-key table.
func parseHotkey(hotkeyConfig string) (mods [][]uint16, key uint16, err error) {
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if rc, ok := modifierRawcodes[part]; ok {
			mods = append(mods, rc)
			continue
		}
		if len(part) == 1 && part[0] >= 'a' && part[0] <= 'z' {
			if key != 0 {
				return nil, 0, fmt.Errorf("more than one non-modifier key")
			}
			key = uint16(part[0] - 'a' + 'A')
			continue
		}
		return nil, 0, fmt.Errorf("unsupported key %q", part)
	}
	if key == 0 {
		return nil, 0, fmt.Errorf("hotkey needs a non-modifier key")
	}
	return mods, key, nil
}

// combinationDown reports whether the target key plus one rawcode of every
// modifier pair is currently held.
func combinationDown(pressed map[uint16]bool, mods [][]uint16, key uint16) bool {
	if !pressed[key] {
		return false
	}
	for _, pair := range mods {
		down := false
		for _, rc := range pair {
			if pressed[rc] {
				down = true
				break
			}
		}
		if !down {
			return false
		}
	}
	return true
}
