package navigator

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/genricoloni/synthia/internal/domain"
	"github.com/genricoloni/synthia/internal/library"
	"go.uber.org/zap"
)

// Queue is the part of the backend session that activation drives
//
//go:generate mockgen -destination=mocks/queue_mock.go -package=mocks github.com/genricoloni/synthia/internal/navigator Queue
type Queue interface {
	Stop(ctx context.Context)
	ClearQueue(ctx context.Context)
	Enqueue(ctx context.Context, path string)
	StartQueue(ctx context.Context)
}

// Source lists folders and playlists
type Source interface {
	List(dir string, mode library.SortMode, reversed bool) ([]library.Entry, error)
	Playlist(path string) []library.Entry
}

// StatusSource returns the last status seen by the poller
type StatusSource interface {
	Current() domain.Status
}

// Options holds the initial navigation state
type Options struct {
	Folder   string
	Mode     library.SortMode
	Reversed bool
	Height   int
}

// Navigator is the browse state machine: either a folder or a playlist
// view, the entries shown, the selection and the visible window.
type Navigator struct {
	source Source
	queue  Queue
	status StatusSource
	logger *zap.Logger

	mu         sync.RWMutex
	location   string // folder, or playlist file in playlist view
	inPlaylist bool
	entries    []library.Entry
	selected   int
	top        int
	height     int
	mode       library.SortMode
	reversed   bool
}

// New opens opts.Folder. The folder must be listable.
func New(source Source, queue Queue, status StatusSource, logger *zap.Logger, opts Options) (*Navigator, error) {
	n := &Navigator{
		source:   source,
		queue:    queue,
		status:   status,
		logger:   logger.Named("navigator"),
		height:   max(opts.Height, 1),
		mode:     opts.Mode,
		reversed: opts.Reversed,
	}
	if n.mode == "" {
		n.mode = library.SortName
	}

	folder, err := filepath.Abs(opts.Folder)
	if err != nil {
		return nil, fmt.Errorf("resolving starting folder: %w", err)
	}
	entries, err := n.source.List(folder, n.mode, n.reversed)
	if err != nil {
		return nil, err
	}
	n.location = folder
	n.entries = entries
	return n, nil
}

// Activate acts on the selected entry: the parent entry ascends, a
// directory descends, a playlist opens a playlist view and an audio file
// replaces the daemon queue with it and everything after it.
func (n *Navigator) Activate(ctx context.Context) error {
	n.mu.Lock()
	if len(n.entries) == 0 {
		n.mu.Unlock()
		return nil
	}
	entry := n.entries[n.selected]

	switch entry.Kind {
	case library.KindParent:
		defer n.mu.Unlock()
		return n.enterFolder(entry.Path, n.location)
	case library.KindDir:
		defer n.mu.Unlock()
		return n.enterFolder(entry.Path, "")
	case library.KindPlaylist:
		defer n.mu.Unlock()
		n.enterPlaylist(entry.Path)
		return nil
	}

	var paths []string
	for _, e := range n.entries[n.selected:] {
		if e.Enqueueable() {
			paths = append(paths, e.Path)
		}
	}
	n.mu.Unlock()

	n.playFrom(ctx, paths)
	return nil
}

// playFrom replaces the daemon queue with paths and starts it
func (n *Navigator) playFrom(ctx context.Context, paths []string) {
	// stopping an already stopped mocp server can crash it
	if n.status.Current().State != domain.StateStopped {
		n.queue.Stop(ctx)
	}
	n.queue.ClearQueue(ctx)
	for _, p := range paths {
		n.queue.Enqueue(ctx, p)
	}
	n.queue.StartQueue(ctx)

	n.logger.Debug("Queue replaced", zap.Int("tracks", len(paths)))
}

// enterFolder lists dir and moves there, selecting selectPath when present.
// On failure the view is unchanged.
func (n *Navigator) enterFolder(dir, selectPath string) error {
	entries, err := n.source.List(dir, n.mode, n.reversed)
	if err != nil {
		n.logger.Warn("Could not open folder", zap.String("folder", dir), zap.Error(err))
		return err
	}
	n.location = dir
	n.inPlaylist = false
	n.entries = entries
	n.selectPath(selectPath)
	return nil
}

func (n *Navigator) enterPlaylist(path string) {
	n.location = path
	n.inPlaylist = true
	n.entries = n.source.Playlist(path)
	n.selected, n.top = 0, 0
}

// selectPath moves the selection to the entry at path, or to the top
func (n *Navigator) selectPath(path string) bool {
	n.selected, n.top = 0, 0
	if path == "" {
		return false
	}
	for i, e := range n.entries {
		if e.Kind != library.KindParent && e.Path == path {
			n.selected = i
			n.follow()
			return true
		}
	}
	return false
}

// Scroll moves the selection by delta, clamped to the entries
func (n *Navigator) Scroll(delta int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.selected = clamp(n.selected+delta, 0, len(n.entries)-1)
	n.follow()
}

// PageUp scrolls by one window height
func (n *Navigator) PageUp() { n.Scroll(-n.Height()) }

// PageDown scrolls by one window height
func (n *Navigator) PageDown() { n.Scroll(n.Height()) }

// Top selects the first entry
func (n *Navigator) Top() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.selected = 0
	n.follow()
}

// Bottom selects the last entry
func (n *Navigator) Bottom() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.selected = max(len(n.entries)-1, 0)
	n.follow()
}

// follow slides the window by the least amount that keeps the selection visible
func (n *Navigator) follow() {
	switch {
	case n.selected < n.top:
		n.top = n.selected
	case n.selected >= n.top+n.height:
		n.top = n.selected - n.height + 1
	}
	n.top = max(n.top, 0)
}

// Resize sets the window height, keeping the selection visible
func (n *Navigator) Resize(height int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.height = max(height, 1)
	n.follow()
}

// CycleSort switches to the next sort mode and re-lists the folder
func (n *Navigator) CycleSort() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mode = n.mode.Next()
	return n.relist()
}

// ToggleReverse flips the sort direction and re-lists the folder
func (n *Navigator) ToggleReverse() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reversed = !n.reversed
	return n.relist()
}

// Reload re-reads the current view, keeping the selected entry when it still exists
func (n *Navigator) Reload() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.relist()
}

func (n *Navigator) relist() error {
	var current string
	if len(n.entries) > 0 {
		current = n.entries[n.selected].Path
	}
	prev, top := n.selected, n.top

	if n.inPlaylist {
		n.entries = n.source.Playlist(n.location)
	} else {
		entries, err := n.source.List(n.location, n.mode, n.reversed)
		if err != nil {
			return err
		}
		n.entries = entries
	}

	if !n.selectPath(current) {
		n.selected = clamp(prev, 0, len(n.entries)-1)
	}
	// keep the window where it was when the selection is still inside it
	if n.selected >= top && n.selected < top+n.height {
		n.top = top
	} else {
		n.follow()
	}
	return nil
}

// View is a consistent snapshot for rendering
type View struct {
	Location   string
	InPlaylist bool
	Entries    []library.Entry // visible window only
	Offset     int             // index of Entries[0]
	Selected   int             // absolute index
	Total      int
	Mode       library.SortMode
	Reversed   bool
}

// Snapshot returns the visible part of the current view
func (n *Navigator) Snapshot() View {
	n.mu.RLock()
	defer n.mu.RUnlock()

	end := min(n.top+n.height, len(n.entries))
	start := min(n.top, end)
	return View{
		Location:   n.location,
		InPlaylist: n.inPlaylist,
		Entries:    append([]library.Entry(nil), n.entries[start:end]...),
		Offset:     start,
		Selected:   n.selected,
		Total:      len(n.entries),
		Mode:       n.mode,
		Reversed:   n.reversed,
	}
}

// Current returns the selected entry
func (n *Navigator) Current() (library.Entry, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.entries) == 0 {
		return library.Entry{}, false
	}
	return n.entries[n.selected], true
}

// Folder returns the directory being browsed, the playlist's folder in playlist view
func (n *Navigator) Folder() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.inPlaylist {
		return filepath.Dir(n.location)
	}
	return n.location
}

// Height returns the window height
func (n *Navigator) Height() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.height
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
