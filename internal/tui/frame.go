package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/domain"
	"github.com/genricoloni/synthia/internal/library"
	"github.com/genricoloni/synthia/internal/navigator"
	"github.com/mattn/go-runewidth"
)

// Chrome is the number of lines around the entry list: the header, a
// rule, the three status lines and the help line.
const Chrome = 6

// WindowHeight returns how many entries fit on a terminal of the given height
func WindowHeight(termHeight int) int {
	return max(termHeight-Chrome, 1)
}

// Frame is everything one full redraw shows
type Frame struct {
	View    navigator.View
	Status  domain.Status
	Palette config.Palette
	Help    string
	Width   int
	Height  int
}

// Lines renders the frame, one string per terminal row
func (f Frame) Lines() []string {
	st := newStyles(f.Palette)
	width := max(f.Width, 20)
	lines := make([]string, 0, max(f.Height, Chrome+1))

	header := f.View.Location
	if f.View.InPlaylist {
		header += " [m3u8]"
	}
	lines = append(lines, st.main.Render(truncate(header, width)))

	for i, e := range f.View.Entries {
		idx := f.View.Offset + i
		label := truncate(fmt.Sprintf("%04d %s", idx, e.Label()), width)
		style := entryStyle(st, e.Kind)
		if idx == f.View.Selected {
			style = style.Reverse(true)
		}
		lines = append(lines, style.Render(label))
	}
	for range WindowHeight(f.Height) - len(f.View.Entries) {
		lines = append(lines, "")
	}

	lines = append(lines,
		st.main.Render(strings.Repeat("─", width)),
		st.main.Render(truncate(fmt.Sprintf("%s > %s", f.Status.State, f.Status.DisplayName()), width)),
		st.misc.Render(truncate(fmt.Sprintf("vol: [%03d%%]  sort mode: [%s]  reversed: [%t]",
			f.Status.Volume, f.View.Mode, f.View.Reversed), width)),
		f.timeLine(st, width),
		f.Help,
	)
	return lines
}

// String renders the frame with newline separators, the way bubbletea expects a view
func (f Frame) String() string {
	return strings.Join(f.Lines(), "\n")
}

func (f Frame) timeLine(st styles, width int) string {
	clocks := fmt.Sprintf("%s -%s [%s] ", f.Status.ElapsedClock(), f.Status.RemainingClock(), f.Status.TotalClock())
	bar := progress.New(progress.WithoutPercentage(), progress.WithFillCharacters('█', ' '))
	if c := colorCode(f.Palette.Main); c != "" {
		bar.FullColor = c
	}
	bar.Width = max(width-runewidth.StringWidth(clocks), 1)
	return st.main.Render(clocks) + bar.ViewAs(f.Status.Progress())
}

func entryStyle(st styles, kind library.Kind) lipgloss.Style {
	switch kind {
	case library.KindParent, library.KindDir:
		return st.dir
	case library.KindPlaylist:
		return st.playlist
	}
	return st.file
}

// truncate cuts s to width terminal cells, counting wide runes twice
func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
