package poller

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/zap"
)

// Syncer produces the daemon status; failures are already defaulted
type Syncer interface {
	Sync(ctx context.Context) domain.Status
}

// Observer is told about every stored status along with the one it replaced
type Observer interface {
	StatusChanged(prev, cur domain.Status)
}

// Poller periodically syncs the daemon status into the store and requests a redraw
type Poller struct {
	logger   *zap.Logger
	syncer   Syncer
	store    *Store
	screen   *Screen
	interval time.Duration

	mu        sync.Mutex
	observers []Observer
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a poller ticking every interval
func New(logger *zap.Logger, syncer Syncer, store *Store, screen *Screen, interval time.Duration) *Poller {
	return &Poller{
		logger:   logger.Named("poller"),
		syncer:   syncer,
		store:    store,
		screen:   screen,
		interval: interval,
	}
}

// Subscribe registers o for every later tick
func (p *Poller) Subscribe(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// Start launches the polling loop in a goroutine and returns immediately.
// The loop outlives ctx and runs until Stop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})

	p.logger.Info("Poller starting", zap.Duration("interval", p.interval))
	go p.runLoop(loopCtx, p.done)
	return nil
}

func (p *Poller) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller loop stopped")
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one sync, store, notify and redraw cycle
func (p *Poller) Tick(ctx context.Context) {
	cur := p.syncer.Sync(ctx)
	if ctx.Err() != nil {
		return
	}
	prev := p.store.Set(cur)

	p.mu.Lock()
	observers := append([]Observer(nil), p.observers...)
	p.mu.Unlock()
	for _, o := range observers {
		o.StatusChanged(prev, cur)
	}

	p.screen.Redraw()
}

// Stop ends the loop and waits for the running tick to finish or ctx to expire
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("Poller did not stop in time")
		return ctx.Err()
	}
}
