package library

import (
	"fmt"
	"time"
)

// Kind classifies a browser entry
type Kind int

const (
	// KindParent is the synthetic "../" entry leading out of the current view
	KindParent Kind = iota
	// KindDir is a sub-directory
	KindDir
	// KindPlaylist is an .m3u8 file
	KindPlaylist
	// KindAudio is a playable file
	KindAudio
)

// ParentName is the label of the synthetic parent entry
const ParentName = "../"

// Entry is one line of the browser
type Entry struct {
	Name    string
	Path    string
	Kind    Kind
	Size    int64
	ModTime time.Time
}

// Label returns the name as displayed; directories carry a trailing slash
func (e Entry) Label() string {
	if e.Kind == KindDir {
		return e.Name + "/"
	}
	return e.Name
}

// Enqueueable reports whether the entry is sent to the daemon when a batch is queued
func (e Entry) Enqueueable() bool {
	return e.Kind == KindAudio
}

// SortMode is the key folders are ordered by
type SortMode string

const (
	SortName SortMode = "name"
	SortSize SortMode = "size"
	SortTime SortMode = "time"
)

// ParseSortMode validates a configured sort mode
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case SortName, SortSize, SortTime:
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// Next returns the following mode in the cycle name, size, time
func (m SortMode) Next() SortMode {
	switch m {
	case SortName:
		return SortSize
	case SortSize:
		return SortTime
	default:
		return SortName
	}
}
