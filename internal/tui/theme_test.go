package tui

import "testing"

func TestNewThemeSelectsByName(t *testing.T) {
	if got := NewTheme(ThemeMidnight).Name; got != ThemeMidnight {
		t.Fatalf("theme = %q", got)
	}
	if got := NewTheme(ThemePorcelain).Name; got != ThemePorcelain {
		t.Fatalf("theme = %q", got)
	}
	// Unknown names fall back to the light theme.
	if got := NewTheme("neon").Name; got != ThemePorcelain {
		t.Fatalf("fallback theme = %q", got)
	}
}

func TestThemeToggleFlips(t *testing.T) {
	th := NewTheme(ThemePorcelain)
	th = th.Toggle()
	if th.Name != ThemeMidnight {
		t.Fatalf("after first toggle: %q", th.Name)
	}
	th = th.Toggle()
	if th.Name != ThemePorcelain {
		t.Fatalf("after second toggle: %q", th.Name)
	}
}

func TestEmojiPickerWrapsAround(t *testing.T) {
	p := emojiPicker{}
	p.move(-1)
	if p.sel != len(emojiSet)-1 {
		t.Fatalf("sel after wrapping back = %d", p.sel)
	}
	p.move(1)
	if p.sel != 0 {
		t.Fatalf("sel after wrapping forward = %d", p.sel)
	}
	p.move(1)
	if p.pick() != emojiSet[1] {
		t.Fatalf("pick = %q", p.pick())
	}
}
