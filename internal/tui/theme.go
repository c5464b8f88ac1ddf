package tui

import (
	"github.com/charmbracelet/lipgloss"
)

type ThemeName string

const (
	// ThemePorcelain is the light theme, ThemeMidnight the dark one. The
	// header toggle cycles between them at runtime.
	ThemePorcelain ThemeName = "porcelain"
	ThemeMidnight  ThemeName = "midnight"
)

type Theme struct {
	Name ThemeName

	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Error       lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor
	BorderHi    lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarMeta  lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	PaneTitleF  lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style
	Spinner     lipgloss.Style
	Warn        lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	RoleErr lipgloss.Style

	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
}

func NewTheme(name ThemeName) Theme {
	switch name {
	case ThemeMidnight:
		return newMidnightTheme()
	default:
		return newPorcelainTheme()
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t.Name == ThemeMidnight {
		return newPorcelainTheme()
	}
	return newMidnightTheme()
}

func newPorcelainTheme() Theme {
	t := Theme{
		Name:        ThemePorcelain,
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1d2433", Dark: "#f2f2f2"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#4a5568", Dark: "#c7c7c7"},
		Accent:      lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
		Error:       lipgloss.AdaptiveColor{Light: "#b42318", Dark: "#ff7a7a"},
		Border:      lipgloss.AdaptiveColor{Light: "#cbd5e0", Dark: "#3a3a3a"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#1f6feb", Dark: "#7aa2ff"},
	}
	return t.build()
}

func newMidnightTheme() Theme {
	t := Theme{
		Name:        ThemeMidnight,
		TextPrimary: lipgloss.AdaptiveColor{Light: "#eaeaea", Dark: "#eaeaea"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#b7b7b7", Dark: "#b7b7b7"},
		Accent:      lipgloss.AdaptiveColor{Light: "#a78bfa", Dark: "#a78bfa"},
		Error:       lipgloss.AdaptiveColor{Light: "#ff7a7a", Dark: "#ff7a7a"},
		Border:      lipgloss.AdaptiveColor{Light: "#2a2a2a", Dark: "#2a2a2a"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#a78bfa", Dark: "#a78bfa"},
	}
	return t.build()
}

func (t Theme) build() Theme {
	t.TopBar = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.TopBarMeta = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.PaneTitleF = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(t.BorderHi).Padding(0, 1)
	t.Spinner = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.Warn = lipgloss.NewStyle().Bold(true).Foreground(t.Error)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.TextPrimary)
	t.RoleErr = lipgloss.NewStyle().Bold(true).Foreground(t.Error)

	t.SidebarItem = lipgloss.NewStyle().Foreground(t.TextMuted)
	t.SidebarActive = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	return t
}
