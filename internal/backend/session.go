package backend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/zap"
)

// Session is the fault-containment layer in front of a Backend.
// Every call runs under a timeout, recovers panics, logs the failure and
// returns a default value; callers never see an error.
type Session struct {
	logger  *zap.Logger
	backend domain.Backend
	timeout time.Duration

	mu      sync.Mutex
	lastErr error
}

// NewSession wraps backend with the per-call timeout
func NewSession(logger *zap.Logger, backend domain.Backend, timeout time.Duration) *Session {
	return &Session{
		logger:  logger.With(zap.String("backend", string(backend.Kind()))),
		backend: backend,
		timeout: timeout,
	}
}

// guard runs fn with the session's timeout and turns every failure into def
func guard[T any](ctx context.Context, s *Session, op string, def T, fn func(context.Context) (T, error)) (result T) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Backend call panicked",
				zap.String("op", op),
				zap.Any("panic", r))
			s.record(fmt.Errorf("%s: panic: %v", op, r))
			result = def
		}
	}()

	v, err := fn(ctx)
	if err != nil {
		s.logger.Warn("Backend call failed",
			zap.String("op", op),
			zap.Error(err))
		s.record(err)
		return def
	}

	s.record(nil)
	return v
}

func (s *Session) run(ctx context.Context, op string, fn func(context.Context) error) {
	guard(ctx, s, op, struct{}{}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}

func (s *Session) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// LastError returns the error of the most recent call, nil if it succeeded
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Kind returns the wrapped backend's kind
func (s *Session) Kind() domain.BackendKind {
	return s.backend.Kind()
}

// Ping is the startup probe. Unlike the other calls it reports its error,
// since an unreachable daemon at startup is fatal.
func (s *Session) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.backend.Ping(ctx); err != nil {
		return fmt.Errorf("%s daemon unreachable: %w", s.backend.Kind(), err)
	}
	return nil
}

// PlayPause toggles playback, logging any failure
func (s *Session) PlayPause(ctx context.Context) {
	s.run(ctx, "play_pause", s.backend.PlayPause)
}

// Stop halts playback and clears the queue
func (s *Session) Stop(ctx context.Context) {
	s.run(ctx, "stop", s.backend.Stop)
}

// Next skips to the next track
func (s *Session) Next(ctx context.Context) {
	s.run(ctx, "next", s.backend.Next)
}

// Prev goes back one track
func (s *Session) Prev(ctx context.Context) {
	s.run(ctx, "prev", s.backend.Prev)
}

// ClearQueue empties the play queue
func (s *Session) ClearQueue(ctx context.Context) {
	s.run(ctx, "clear_queue", s.backend.ClearQueue)
}

// StartQueue starts playing the queue from its first entry
func (s *Session) StartQueue(ctx context.Context) {
	s.run(ctx, "start_queue", s.backend.StartQueue)
}

// Enqueue appends path to the play queue
func (s *Session) Enqueue(ctx context.Context, path string) {
	s.run(ctx, "enqueue", func(ctx context.Context) error {
		return s.backend.Enqueue(ctx, path)
	})
}

// SetRelativeVolume shifts the volume by delta, clamped to 0..100
func (s *Session) SetRelativeVolume(ctx context.Context, delta int) {
	s.run(ctx, "set_volume", func(ctx context.Context) error {
		return s.backend.SetRelativeVolume(ctx, delta)
	})
}

// Seek moves the playback position by delta seconds
func (s *Session) Seek(ctx context.Context, delta int) {
	s.run(ctx, "seek", func(ctx context.Context) error {
		return s.backend.Seek(ctx, delta)
	})
}

// Volume returns the daemon volume, 0 on failure
func (s *Session) Volume(ctx context.Context) int {
	return guard(ctx, s, "volume", 0, func(ctx context.Context) (int, error) {
		v, err := s.backend.Volume(ctx)
		return domain.ClampVolume(v), err
	})
}

// Sync returns the daemon status, or the default record on failure
func (s *Session) Sync(ctx context.Context) domain.Status {
	return guard(ctx, s, "sync", domain.DefaultStatus(), func(ctx context.Context) (domain.Status, error) {
		st, err := s.backend.Sync(ctx)
		return st.Normalize(), err
	})
}

// UpdateLibrary asks the daemon to rescan its music directory.
// Backends without a music database ignore it.
func (s *Session) UpdateLibrary(ctx context.Context) {
	updater, ok := s.backend.(domain.LibraryUpdater)
	if !ok {
		s.logger.Debug("Library update not supported")
		return
	}
	s.run(ctx, "update_library", updater.UpdateLibrary)
}
