package app

import (
	"context"

	"github.com/genricoloni/synthia/internal/backend"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/domain"
	"github.com/genricoloni/synthia/internal/library"
	"github.com/genricoloni/synthia/internal/navigator"
	"github.com/genricoloni/synthia/internal/notify"
	"github.com/genricoloni/synthia/internal/poller"
	"github.com/genricoloni/synthia/internal/probe"
	"github.com/genricoloni/synthia/internal/watch"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// BackendModule provides the fault-contained session to the configured daemon.
// It needs a *config.Config and a *zap.Logger.
var BackendModule = fx.Module("backend",
	fx.Provide(
		fx.Annotate(probe.NewReader, fx.As(new(domain.TagReader))),
		backend.New,
		newSession,
	),
)

// Module wires the interactive client on top of BackendModule. A frontend
// module consumes the navigator, the status store, the screen and the dispatcher.
var Module = fx.Options(
	BackendModule,
	fx.Provide(
		poller.NewStore,
		poller.NewScreen,
		newPoller,
		newLister,
		newNavigator,
		newWatcher,
		newNotifier,
		newController,
		newDispatcher,
	),
	fx.Invoke(registerHooks),
)

func newSession(logger *zap.Logger, b domain.Backend, cfg *config.Config) *backend.Session {
	return backend.NewSession(logger, b, cfg.Timeout)
}

func newPoller(logger *zap.Logger, session *backend.Session, store *poller.Store, screen *poller.Screen, cfg *config.Config) *poller.Poller {
	return poller.New(logger, session, store, screen, cfg.PollInterval())
}

func newLister(cfg *config.Config, logger *zap.Logger) (*library.Lister, error) {
	filter, err := library.NewFilter(cfg.Library.Patterns)
	if err != nil {
		return nil, err
	}
	return library.NewLister(filter, logger), nil
}

func newNavigator(lister *library.Lister, session *backend.Session, store *poller.Store, logger *zap.Logger, cfg *config.Config) (*navigator.Navigator, error) {
	mode, err := library.ParseSortMode(cfg.SortMode)
	if err != nil {
		return nil, err
	}
	return navigator.New(lister, session, store, logger, navigator.Options{
		Folder:   cfg.StartingFolder,
		Mode:     mode,
		Reversed: cfg.SortReversed,
		Height:   cfg.PageSize,
	})
}

// newWatcher re-lists the folder on screen whenever its contents change
func newWatcher(logger *zap.Logger, nav *navigator.Navigator, screen *poller.Screen) (*watch.Watcher, error) {
	return watch.New(logger, func(dir string) {
		if nav.Folder() != dir {
			return
		}
		if err := nav.Reload(); err != nil {
			logger.Warn("Could not re-list folder", zap.String("folder", dir), zap.Error(err))
			return
		}
		screen.Redraw()
	})
}

func newNotifier(logger *zap.Logger) *notify.Notifier {
	return notify.NewNotifier(logger, notify.StdDialer)
}

func newController(
	logger *zap.Logger,
	session *backend.Session,
	nav *navigator.Navigator,
	p *poller.Poller,
	screen *poller.Screen,
	w *watch.Watcher,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
) *Controller {
	return NewController(logger, session, nav, p, screen, w, shutdowner, Steps{
		Volume: cfg.VolumeStep,
		Seek:   cfg.SeekStep,
	})
}

func newDispatcher(logger *zap.Logger, cfg *config.Config, c *Controller) (*dispatch.Dispatcher, error) {
	return dispatch.New(logger, cfg.KeyBinds, c.Ops())
}

type hookParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Logger    *zap.Logger
	Config    *config.Config
	Session   *backend.Session
	Poller    *poller.Poller
	Navigator *navigator.Navigator
	Watcher   *watch.Watcher
	Notifier  *notify.Notifier
	Screen    *poller.Screen
}

// registerHooks probes the daemon before anything else starts; an
// unreachable daemon fails the startup.
func registerHooks(p hookParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := p.Session.Ping(ctx); err != nil {
				return err
			}
			p.Logger.Info("Connected to daemon",
				zap.String("backend", string(p.Session.Kind())))

			if p.Config.Backend == domain.BackendMPD && p.Config.MPD.UpdateOnStart {
				p.Session.UpdateLibrary(ctx)
			}

			if p.Config.Notifications.Enabled {
				p.Poller.Subscribe(p.Notifier)
			}
			p.Config.WatchPalette(func(config.Palette) {
				p.Screen.Redraw()
			})

			if err := p.Watcher.Follow(p.Navigator.Folder()); err != nil {
				p.Logger.Warn("Folder auto-refresh disabled", zap.Error(err))
			}
			if err := p.Watcher.Start(ctx); err != nil {
				return err
			}
			return p.Poller.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("Shutting down")
			return multierr.Combine(
				p.Poller.Stop(ctx),
				p.Watcher.Stop(ctx),
				p.Notifier.Stop(ctx),
			)
		},
	})
}
