package poller

import "sync"

// Renderer draws the whole interface from current state
type Renderer interface {
	Render()
}

// Screen serializes redraws. Every context that wants the terminal
// repainted goes through Redraw, so two renders never interleave.
type Screen struct {
	mu       sync.Mutex
	renderer Renderer
}

// NewScreen creates a screen with no renderer attached; redraws are dropped until one is
func NewScreen() *Screen {
	return &Screen{}
}

// Attach sets the renderer used by later redraws. A nil renderer detaches.
func (s *Screen) Attach(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

// Redraw renders once while holding the screen lock
func (s *Screen) Redraw() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.renderer != nil {
		s.renderer.Render()
	}
}

// Locked runs fn while holding the screen lock, for terminal writes that are not renders
func (s *Screen) Locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
