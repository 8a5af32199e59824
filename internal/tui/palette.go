package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/genricoloni/synthia/internal/config"
)

// colorCode converts a configured color to a lipgloss color string.
// SGR foreground and background codes map to the 16 ANSI colors; hex
// passes through. Anything else yields "", meaning the terminal default.
func colorCode(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "#") {
		return code
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return ""
	}
	switch {
	case n >= 30 && n <= 37:
		return strconv.Itoa(n - 30)
	case n >= 40 && n <= 47:
		return strconv.Itoa(n - 40)
	case n >= 90 && n <= 97:
		return strconv.Itoa(n - 90 + 8)
	case n >= 100 && n <= 107:
		return strconv.Itoa(n - 100 + 8)
	}
	return ""
}

func color(code string) lipgloss.TerminalColor {
	if c := colorCode(code); c != "" {
		return lipgloss.Color(c)
	}
	return lipgloss.NoColor{}
}

type styles struct {
	main     lipgloss.Style
	dir      lipgloss.Style
	file     lipgloss.Style
	playlist lipgloss.Style
	misc     lipgloss.Style
}

func newStyles(p config.Palette) styles {
	base := lipgloss.NewStyle().Background(color(p.Bg))
	return styles{
		main:     base.Foreground(color(p.Main)).Bold(true),
		dir:      base.Foreground(color(p.Dir)),
		file:     base.Foreground(color(p.File)),
		playlist: base.Foreground(color(p.Playlist)),
		misc:     base.Foreground(color(p.Misc)),
	}
}
