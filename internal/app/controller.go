package app

import (
	"context"

	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/library"
	"github.com/genricoloni/synthia/internal/navigator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Player is the part of the backend session bound to keys
//
//go:generate mockgen -destination=mocks/player_mock.go -package=mocks github.com/genricoloni/synthia/internal/app Player
type Player interface {
	PlayPause(ctx context.Context)
	Stop(ctx context.Context)
	Next(ctx context.Context)
	Prev(ctx context.Context)
	SetRelativeVolume(ctx context.Context, delta int)
	Seek(ctx context.Context, delta int)
	UpdateLibrary(ctx context.Context)
}

// Refresher syncs the status right away and redraws
type Refresher interface {
	Tick(ctx context.Context)
}

// Redrawer repaints the interface
type Redrawer interface {
	Redraw()
}

// Follower moves the folder watch
type Follower interface {
	Follow(dir string) error
}

// Steps holds the increments of the relative volume and seek actions
type Steps struct {
	Volume int
	Seek   int
}

// Controller turns every bindable action into an operation on the
// player, the navigator or the process.
type Controller struct {
	logger     *zap.Logger
	player     Player
	nav        *navigator.Navigator
	refresher  Refresher
	screen     Redrawer
	follower   Follower
	shutdowner fx.Shutdowner
	steps      Steps
}

// NewController creates a controller
func NewController(
	logger *zap.Logger,
	player Player,
	nav *navigator.Navigator,
	refresher Refresher,
	screen Redrawer,
	follower Follower,
	shutdowner fx.Shutdowner,
	steps Steps,
) *Controller {
	return &Controller{
		logger:     logger.Named("controller"),
		player:     player,
		nav:        nav,
		refresher:  refresher,
		screen:     screen,
		follower:   follower,
		shutdowner: shutdowner,
		steps:      steps,
	}
}

// Ops returns the operation of every action
func (c *Controller) Ops() map[dispatch.Action]dispatch.Op {
	return map[dispatch.Action]dispatch.Op{
		dispatch.ActPlayPause:     c.command(c.player.PlayPause),
		dispatch.ActStop:          c.command(c.player.Stop),
		dispatch.ActNext:          c.command(c.player.Next),
		dispatch.ActPrev:          c.command(c.player.Prev),
		dispatch.ActVolumeDown:    c.command(func(ctx context.Context) { c.player.SetRelativeVolume(ctx, -c.steps.Volume) }),
		dispatch.ActVolumeUp:      c.command(func(ctx context.Context) { c.player.SetRelativeVolume(ctx, c.steps.Volume) }),
		dispatch.ActSeekBack:      c.command(func(ctx context.Context) { c.player.Seek(ctx, -c.steps.Seek) }),
		dispatch.ActSeekForward:   c.command(func(ctx context.Context) { c.player.Seek(ctx, c.steps.Seek) }),
		dispatch.ActUpdateLibrary: c.player.UpdateLibrary,

		dispatch.ActScrollUp:      c.navigate(func() error { c.nav.Scroll(-1); return nil }),
		dispatch.ActScrollDown:    c.navigate(func() error { c.nav.Scroll(1); return nil }),
		dispatch.ActPageUp:        c.navigate(func() error { c.nav.PageUp(); return nil }),
		dispatch.ActPageDown:      c.navigate(func() error { c.nav.PageDown(); return nil }),
		dispatch.ActTop:           c.navigate(func() error { c.nav.Top(); return nil }),
		dispatch.ActBottom:        c.navigate(func() error { c.nav.Bottom(); return nil }),
		dispatch.ActCycleSort:     c.navigate(c.nav.CycleSort),
		dispatch.ActToggleReverse: c.navigate(c.nav.ToggleReverse),

		dispatch.ActActivate: c.activate,
		dispatch.ActQuit:     c.quit,
	}
}

// command runs a daemon operation, then refreshes the status so the result shows at once
func (c *Controller) command(fn func(ctx context.Context)) dispatch.Op {
	return func(ctx context.Context) {
		fn(ctx)
		c.refresher.Tick(ctx)
	}
}

func (c *Controller) navigate(fn func() error) dispatch.Op {
	return func(ctx context.Context) {
		if err := fn(); err != nil {
			c.logger.Warn("Could not re-list folder", zap.Error(err))
		}
		c.screen.Redraw()
	}
}

func (c *Controller) activate(ctx context.Context) {
	entry, ok := c.nav.Current()
	if !ok {
		return
	}
	if err := c.nav.Activate(ctx); err != nil {
		// the navigator keeps the previous view
		c.screen.Redraw()
		return
	}

	if entry.Kind == library.KindAudio {
		c.refresher.Tick(ctx)
		return
	}
	if err := c.follower.Follow(c.nav.Folder()); err != nil {
		c.logger.Warn("Could not watch folder", zap.Error(err))
	}
	c.screen.Redraw()
}

func (c *Controller) quit(context.Context) {
	c.logger.Info("Quit requested")
	if err := c.shutdowner.Shutdown(); err != nil {
		c.logger.Error("Shutdown failed", zap.Error(err))
	}
}
