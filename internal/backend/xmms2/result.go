package xmms2

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/genricoloni/synthia/internal/domain"
)

// Result is the deferred reply to a method call. Wait must return before
// IsError, Err or Value are consulted.
type Result struct {
	once  sync.Once
	done  chan struct{}
	value any
	err   error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

func (r *Result) complete(v any) {
	r.once.Do(func() {
		r.value = v
		close(r.done)
	})
}

func (r *Result) fail(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Wait blocks until the reply arrives or ctx ends. An expired ctx is reported
// as domain.ErrUnresponsive.
func (r *Result) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for reply: %w", domain.ErrUnresponsive)
	}
}

// IsError reports whether the call failed, on the wire or on the server
func (r *Result) IsError() bool {
	return r.Err() != nil
}

// Err returns the call failure, a *ServerError when the daemon refused it
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return errors.New("result not ready")
	}
}

// Value returns the decoded reply, nil until the call completed successfully
func (r *Result) Value() any {
	select {
	case <-r.done:
		return r.value
	default:
		return nil
	}
}

// await waits for r and returns its value or its failure
func await(ctx context.Context, r *Result) (any, error) {
	if err := r.Wait(ctx); err != nil {
		return nil, err
	}
	if r.IsError() {
		return nil, r.Err()
	}
	return r.Value(), nil
}

func awaitInt(ctx context.Context, r *Result) (int, error) {
	v, err := await(ctx, r)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: expected int, got %T", domain.ErrProtocol, v)
	}
	return n, nil
}

func awaitDict(ctx context.Context, r *Result) (map[string]any, error) {
	v, err := await(ctx, r)
	if err != nil {
		return nil, err
	}
	d, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected dict, got %T", domain.ErrProtocol, v)
	}
	return d, nil
}
