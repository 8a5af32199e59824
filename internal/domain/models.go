package domain

import "fmt"

// PlayState represents the playback state reported by a daemon
type PlayState int

const (
	// StateStopped indicates nothing is playing and the queue position is reset
	StateStopped PlayState = iota
	// StatePlaying indicates a track is currently playing
	StatePlaying
	// StatePaused indicates a track is loaded but paused
	StatePaused
)

// String returns the display name of the state
func (s PlayState) String() string {
	switch s {
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	default:
		return "STOPPED"
	}
}

// Status is the normalized snapshot every backend produces on Sync.
// Fields are ready for display; the renderer does no further conversion.
type Status struct {
	// State is the current playback state
	State PlayState
	// File is the absolute path (or URL) of the current track, empty when stopped
	File string
	// Title of the current track, empty when unavailable
	Title string
	// Artist of the current track, empty when unavailable
	Artist string
	// Album of the current track, empty when unavailable
	Album string
	// Elapsed is the playback position in seconds
	Elapsed int
	// Total is the track length in seconds, never below 1
	Total int
	// Bitrate in kbps, 0 when unknown
	Bitrate int
	// SampleRate in Hz, 0 when unknown
	SampleRate int
	// Volume in percent, within [0,100]
	Volume int
}

// DefaultStatus returns the record shown when the daemon could not be queried
func DefaultStatus() Status {
	return Status{State: StateStopped, Total: 1}
}

// Normalize enforces the record invariants and returns the corrected copy.
// A non-stopped state without a file is reported as stopped.
func (s Status) Normalize() Status {
	if s.State != StatePlaying && s.State != StatePaused {
		s.State = StateStopped
	}
	if s.State != StateStopped && s.File == "" {
		s.State = StateStopped
	}
	if s.State == StateStopped {
		s.File = ""
		s.Title, s.Artist, s.Album = "", "", ""
		s.Elapsed = 0
		s.Bitrate, s.SampleRate = 0, 0
		s.Total = 1
	}
	if s.Total < 1 {
		s.Total = 1
	}
	s.Elapsed = max(s.Elapsed, 0)
	s.Bitrate = max(s.Bitrate, 0)
	s.SampleRate = max(s.SampleRate, 0)
	s.Volume = ClampVolume(s.Volume)
	return s
}

// DisplayName returns "artist - title" when tags are known, the file otherwise
func (s Status) DisplayName() string {
	if s.Title != "" || s.Artist != "" {
		return s.Artist + " - " + s.Title
	}
	return s.File
}

// Progress returns the elapsed fraction of the track in [0,1]
func (s Status) Progress() float64 {
	total := max(s.Total, 1)
	p := float64(s.Elapsed) / float64(total)
	return min(max(p, 0), 1)
}

// ElapsedClock formats the elapsed time as mm:ss
func (s Status) ElapsedClock() string { return Clock(s.Elapsed) }

// RemainingClock formats the remaining time as mm:ss
func (s Status) RemainingClock() string { return Clock(s.Total - s.Elapsed) }

// TotalClock formats the track length as mm:ss
func (s Status) TotalClock() string { return Clock(s.Total) }

// Clock converts seconds to mm:ss; negative values render as 00:00
func Clock(seconds int) string {
	seconds = max(seconds, 0)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ClampVolume bounds a volume percentage to [0,100]
func ClampVolume(v int) int {
	return min(max(v, 0), 100)
}

// BackendKind selects one of the supported daemons
type BackendKind string

const (
	// BackendMocp is the Music On Console server
	BackendMocp BackendKind = "mocp"
	// BackendMPD is the Music Player Daemon
	BackendMPD BackendKind = "mpd"
	// BackendXmms2 is the XMMS2 daemon
	BackendXmms2 BackendKind = "xmms2"
)

// TrackInfo is the metadata read from a local audio file
type TrackInfo struct {
	Title    string
	Artist   string
	Album    string
	Duration int // seconds, 0 when unknown
	Bitrate  int // kbps, 0 when unknown
}
