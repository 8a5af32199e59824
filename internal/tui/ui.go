package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/navigator"
	"github.com/genricoloni/synthia/internal/poller"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module runs the bubbletea frontend for the lifetime of the app
var Module = fx.Module("tui",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

// UI owns the bubbletea program. It is the screen's renderer: a redraw
// request from any goroutine becomes one repaint in the program's loop.
type UI struct {
	logger     *zap.Logger
	screen     *poller.Screen
	shutdowner fx.Shutdowner
	program    *tea.Program

	redraw chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates the frontend; nothing is drawn until Start
func New(
	logger *zap.Logger,
	cfg *config.Config,
	nav *navigator.Navigator,
	store *poller.Store,
	screen *poller.Screen,
	d *dispatch.Dispatcher,
	shutdowner fx.Shutdowner,
) *UI {
	ctx, cancel := context.WithCancel(context.Background())
	redraw := make(chan struct{}, 1)
	model := NewModel(ctx, nav, store, cfg, d, redraw)

	return &UI{
		logger:     logger.Named("tui"),
		screen:     screen,
		shutdowner: shutdowner,
		// ctrl+c arrives as a key and goes through the quit binding
		program: tea.NewProgram(model, tea.WithAltScreen(), tea.WithoutSignalHandler()),
		redraw:  redraw,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Render queues a repaint. Requests made while one is pending are merged.
func (u *UI) Render() {
	select {
	case u.redraw <- struct{}{}:
	default:
	}
}

// Start runs the program in a goroutine. When the program ends on its own
// the whole app shuts down.
func (u *UI) Start(ctx context.Context) error {
	u.screen.Attach(u)

	go func() {
		defer close(u.done)
		if _, err := u.program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			u.logger.Error("Terminal UI failed", zap.Error(err))
		}
		_ = u.shutdowner.Shutdown()
	}()
	return nil
}

// Stop quits the program and waits for it to restore the terminal
func (u *UI) Stop(ctx context.Context) error {
	u.screen.Attach(nil)
	u.cancel()
	go u.program.Quit()

	select {
	case <-u.done:
		return nil
	case <-ctx.Done():
		u.program.Kill()
		return ctx.Err()
	}
}

func registerHooks(lc fx.Lifecycle, ui *UI) {
	lc.Append(fx.Hook{
		OnStart: ui.Start,
		OnStop:  ui.Stop,
	})
}
