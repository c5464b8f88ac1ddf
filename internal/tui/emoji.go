package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// emojiSet is the fixed palette the composer popup offers.
var emojiSet = []string{
	"😊", "😂", "❤️", "👍", "🎉", "😢", "😮", "🔥", "🙏", "😎", "🤔", "👋",
}

type emojiPicker struct {
	open bool
	sel  int
}

func (p *emojiPicker) move(delta int) {
	p.sel += delta
	if p.sel < 0 {
		p.sel = len(emojiSet) - 1
	}
	if p.sel >= len(emojiSet) {
		p.sel = 0
	}
}

func (p *emojiPicker) pick() string {
	return emojiSet[p.sel]
}

func (p *emojiPicker) view(t Theme) string {
	var b strings.Builder
	b.WriteString(t.PaneTitleF.Render("Emoji") + "  ")
	for i, e := range emojiSet {
		if i == p.sel {
			b.WriteString(t.SidebarActive.Render("[" + e + "]"))
		} else {
			b.WriteString(" " + e + " ")
		}
	}
	b.WriteString("  " + t.Footer.Render("←/→ pick · enter insert · esc close"))
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(t.BorderHi).
		Padding(0, 1).
		Render(b.String())
}
