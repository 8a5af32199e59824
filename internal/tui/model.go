package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/navigator"
	"github.com/genricoloni/synthia/internal/poller"
)

// redrawMsg asks the model to repaint after a status or folder change
type redrawMsg struct{}

// helpActions are the actions listed on the help line, most used first
var helpActions = []struct {
	action dispatch.Action
	desc   string
}{
	{dispatch.ActPlayPause, "play/pause"},
	{dispatch.ActActivate, "open/play"},
	{dispatch.ActNext, "next"},
	{dispatch.ActPrev, "prev"},
	{dispatch.ActStop, "stop"},
	{dispatch.ActVolumeUp, "vol+"},
	{dispatch.ActVolumeDown, "vol-"},
	{dispatch.ActCycleSort, "sort"},
	{dispatch.ActToggleReverse, "reverse"},
	{dispatch.ActQuit, "quit"},
}

// Bindings returns the help entries for the dispatcher's key table
func Bindings(d *dispatch.Dispatcher) []key.Binding {
	var bindings []key.Binding
	for _, h := range helpActions {
		keys := d.Keys(h.action)
		if len(keys) == 0 {
			continue
		}
		bindings = append(bindings, key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(keyName(keys[0]), h.desc),
		))
	}
	return bindings
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

// Model is the bubbletea model. Navigation and status live outside it,
// in the navigator and the poller's store; the model only routes keys and
// draws their current state.
type Model struct {
	ctx        context.Context
	nav        *navigator.Navigator
	store      *poller.Store
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	redraw     <-chan struct{}

	help     help.Model
	bindings []key.Binding
	width    int
	height   int
}

// NewModel creates the model; redraw delivers repaint requests from other goroutines
func NewModel(
	ctx context.Context,
	nav *navigator.Navigator,
	store *poller.Store,
	cfg *config.Config,
	d *dispatch.Dispatcher,
	redraw <-chan struct{},
) Model {
	return Model{
		ctx:        ctx,
		nav:        nav,
		store:      store,
		cfg:        cfg,
		dispatcher: d,
		redraw:     redraw,
		help:       help.New(),
		bindings:   Bindings(d),
	}
}

// Init starts listening for redraw requests
func (m Model) Init() tea.Cmd {
	return waitForRedraw(m.redraw)
}

// waitForRedraw blocks on the redraw channel and turns the next request into a message
func waitForRedraw(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return redrawMsg{}
	}
}

// Update resizes the window, dispatches keys and re-arms the redraw listener
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.nav.Resize(WindowHeight(msg.Height))

	case tea.KeyMsg:
		m.dispatcher.Dispatch(m.ctx, msg.String())

	case redrawMsg:
		return m, waitForRedraw(m.redraw)
	}
	return m, nil
}

// View renders the frame, or nothing before the first size message
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	f := Frame{
		View:    m.nav.Snapshot(),
		Status:  m.store.Current(),
		Palette: m.cfg.CurrentPalette(),
		Help:    m.help.ShortHelpView(m.bindings),
		Width:   m.width,
		Height:  m.height,
	}
	return f.String()
}
