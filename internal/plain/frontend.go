package plain

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/x/term"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/navigator"
	"github.com/genricoloni/synthia/internal/poller"
	"github.com/genricoloni/synthia/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	enterScreen = "\x1b[?1049h\x1b[?25l"
	leaveScreen = "\x1b[?25h\x1b[?1049l"
	home        = "\x1b[H"
	eraseLine   = "\x1b[K"
	eraseBelow  = "\x1b[J"

	defaultWidth  = 80
	defaultHeight = 24
)

// Module runs the plain frontend for the lifetime of the app
var Module = fx.Module("plain",
	fx.Provide(New),
	fx.Invoke(registerHooks),
)

// Frontend reads keys from a raw terminal and paints frames with ANSI
// sequences. It also works on pipes: input then arrives line-buffered and
// end of input quits.
type Frontend struct {
	logger     *zap.Logger
	cfg        *config.Config
	nav        *navigator.Navigator
	store      *poller.Store
	screen     *poller.Screen
	dispatcher *dispatch.Dispatcher
	shutdowner fx.Shutdowner
	helpLine   string

	in   io.Reader
	out  io.Writer
	fd   uintptr
	tty  bool
	size func() (int, int, error)

	mu     sync.Mutex
	state  *term.State
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a frontend on the process's stdin and stdout
func New(
	logger *zap.Logger,
	cfg *config.Config,
	nav *navigator.Navigator,
	store *poller.Store,
	screen *poller.Screen,
	d *dispatch.Dispatcher,
	shutdowner fx.Shutdowner,
) *Frontend {
	f := newFrontend(logger, cfg, nav, store, screen, d, shutdowner, os.Stdin, os.Stdout)
	f.fd = os.Stdin.Fd()
	f.tty = term.IsTerminal(f.fd)
	f.size = func() (int, int, error) { return term.GetSize(os.Stdout.Fd()) }
	return f
}

func newFrontend(
	logger *zap.Logger,
	cfg *config.Config,
	nav *navigator.Navigator,
	store *poller.Store,
	screen *poller.Screen,
	d *dispatch.Dispatcher,
	shutdowner fx.Shutdowner,
	in io.Reader,
	out io.Writer,
) *Frontend {
	return &Frontend{
		logger:     logger.Named("plain"),
		cfg:        cfg,
		nav:        nav,
		store:      store,
		screen:     screen,
		dispatcher: d,
		shutdowner: shutdowner,
		helpLine:   help.New().ShortHelpView(tui.Bindings(d)),
		in:         in,
		out:        out,
		size:       func() (int, int, error) { return 0, 0, errors.New("no terminal") },
	}
}

// Start switches the terminal to raw mode, paints the first frame and
// starts reading keys.
func (f *Frontend) Start(ctx context.Context) error {
	if f.tty {
		state, err := term.MakeRaw(f.fd)
		if err != nil {
			return err
		}
		f.mu.Lock()
		f.state = state
		f.mu.Unlock()
		f.write(enterScreen)
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.cancel = cancel
	f.done = make(chan struct{})

	f.screen.Attach(f)
	f.screen.Redraw()

	go f.readKeys(loopCtx)
	return nil
}

func (f *Frontend) readKeys(ctx context.Context) {
	defer close(f.done)
	dec := dispatch.NewDecoder(f.in)

	for {
		token, err := dec.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.logger.Info("Input closed", zap.Error(err))
				_ = f.shutdowner.Shutdown()
			}
			return
		}
		if token == dispatch.Unrecognized {
			continue
		}
		f.dispatcher.Dispatch(ctx, token)
	}
}

// Render paints one full frame. The screen lock is held by the caller.
func (f *Frontend) Render() {
	width, height, err := f.size()
	if err != nil || width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}
	f.nav.Resize(tui.WindowHeight(height))

	frame := tui.Frame{
		View:    f.nav.Snapshot(),
		Status:  f.store.Current(),
		Palette: f.cfg.CurrentPalette(),
		Help:    f.helpLine,
		Width:   width,
		Height:  height,
	}

	var b strings.Builder
	b.WriteString(home)
	for i, line := range frame.Lines() {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(line)
		b.WriteString(eraseLine)
	}
	b.WriteString(eraseBelow)
	f.write(b.String())
}

func (f *Frontend) write(s string) {
	if _, err := io.WriteString(f.out, s); err != nil {
		f.logger.Debug("Terminal write failed", zap.Error(err))
	}
}

// Stop ends the key loop and restores the terminal
func (f *Frontend) Stop(ctx context.Context) error {
	f.screen.Attach(nil)
	if f.cancel != nil {
		f.cancel()
		select {
		case <-f.done:
		case <-ctx.Done():
		}
	}
	return f.restore()
}

func (f *Frontend) restore() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == nil {
		return nil
	}
	f.screen.Locked(func() { f.write(leaveScreen) })
	err := term.Restore(f.fd, f.state)
	f.state = nil
	return err
}

func registerHooks(lc fx.Lifecycle, f *Frontend) {
	lc.Append(fx.Hook{
		OnStart: f.Start,
		OnStop:  f.Stop,
	})
}
