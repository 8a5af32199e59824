package domain

import "context"

// Backend is the capability contract every daemon client implements.
// A transport is opened and closed inside each call; no connection outlives an operation.
//
//go:generate mockgen -destination=../backend/mocks/backend_mock.go -package=mocks github.com/genricoloni/synthia/internal/domain Backend
type Backend interface {
	// Kind identifies the daemon this backend talks to
	Kind() BackendKind

	// Ping connects to the daemon and disconnects again.
	// It is the startup reachability probe.
	Ping(ctx context.Context) error

	// PlayPause toggles between playing and paused
	PlayPause(ctx context.Context) error

	// Stop stops playback and clears the queue
	Stop(ctx context.Context) error

	// Next advances one queue position
	Next(ctx context.Context) error

	// Prev retreats one queue position
	Prev(ctx context.Context) error

	// Enqueue appends one absolute file path to the play queue
	Enqueue(ctx context.Context, path string) error

	// ClearQueue empties the play queue
	ClearQueue(ctx context.Context) error

	// SetRelativeVolume reads the volume, adds delta, clamps to [0,100] and writes it back
	SetRelativeVolume(ctx context.Context, delta int) error

	// Volume returns the current volume percent
	Volume(ctx context.Context) (int, error)

	// Seek shifts the playback position by delta seconds
	Seek(ctx context.Context, delta int) error

	// StartQueue begins playback from the first queue entry
	StartQueue(ctx context.Context) error

	// Sync queries the daemon and returns the normalized status
	Sync(ctx context.Context) (Status, error)
}

// LibraryUpdater is implemented by backends whose daemon keeps its own music database
type LibraryUpdater interface {
	// UpdateLibrary asks the daemon to rescan its music directory
	UpdateLibrary(ctx context.Context) error
}

// TagReader reads tags and duration from a local audio file.
// Unreadable or unknown files yield an empty TrackInfo.
type TagReader interface {
	ReadTags(path string) TrackInfo
}
