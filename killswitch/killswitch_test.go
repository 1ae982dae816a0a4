package killswitch

import (
	"errors"
	"testing"
)

func TestCheckBeforeAndAfterTrigger(t *testing.T) {
	s := New()
	if s.Aborted() {
		t.Fatal("new switch must not be aborted")
	}
	if err := s.Check(); err != nil {
		t.Fatalf("unexpected error before trigger: %v", err)
	}

	s.Trigger()
	if !s.Aborted() {
		t.Fatal("switch must report aborted after trigger")
	}
	if err := s.Check(); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestTriggerIsIdempotent(t *testing.T) {
	s := New()
	s.Trigger()
	s.Trigger()
	s.Trigger()
	if !s.Aborted() {
		t.Fatal("switch must stay aborted")
	}
}

func TestParseHotkey(t *testing.T) {
	mods, key, err := parseHotkey("Ctrl+Shift+Q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != 'Q' {
		t.Errorf("expected rawcode %d for q, got %d", 'Q', key)
	}
	if len(mods) != 2 {
		t.Errorf("expected 2 modifier pairs, got %d", len(mods))
	}
}

func TestParseHotkeyRejectsModifierOnly(t *testing.T) {
	if _, _, err := parseHotkey("Ctrl+Alt"); err == nil {
		t.Error("expected error for a hotkey without a non-modifier key")
	}
}

func TestParseHotkeyRejectsUnknownKey(t *testing.T) {
	if _, _, err := parseHotkey("Ctrl+F12"); err == nil {
		t.Error("expected error for an unsupported key")
	}
}

func TestCombinationDown(t *testing.T) {
	mods, key, err := parseHotkey("ctrl+shift+q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pressed := map[uint16]bool{}
	if combinationDown(pressed, mods, key) {
		t.Error("nothing pressed must not match")
	}

	pressed[162] = true // left ctrl
	pressed['Q'] = true
	if combinationDown(pressed, mods, key) {
		t.Error("missing shift must not match")
	}

	pressed[161] = true // right shift
	if !combinationDown(pressed, mods, key) {
		t.Error("full combination must match")
	}

	delete(pressed, 'Q')
	if combinationDown(pressed, mods, key) {
		t.Error("released key must not match")
	}
}
