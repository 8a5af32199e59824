package library

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

const playlistExt = ".m3u8"

// Filter selects the files shown in a folder listing
type Filter struct {
	patterns []glob.Glob
}

// NewFilter compiles case-insensitive glob patterns such as "*.flac"
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, p := range patterns {
		g, err := glob.Compile(strings.ToLower(p))
		if err != nil {
			return nil, fmt.Errorf("invalid library pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Match reports whether a file name passes the filter
func (f *Filter) Match(name string) bool {
	lower := strings.ToLower(name)
	for _, g := range f.patterns {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// Lister reads folders and playlists into browser entries
type Lister struct {
	filter *Filter
	logger *zap.Logger
}

// NewLister creates a Lister that keeps the files matched by filter
func NewLister(filter *Filter, logger *zap.Logger) *Lister {
	return &Lister{filter: filter, logger: logger.Named("library")}
}

// List returns the entries of dir: the parent entry first, then
// directories, then matching files, each group in the requested order.
// Hidden entries are included.
func (l *Lister) List(dir string, mode SortMode, reversed bool) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading folder %s: %w", dir, err)
	}

	var dirs, files []Entry
	for _, de := range des {
		path := filepath.Join(dir, de.Name())
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			l.logger.Debug("Skipping unreadable entry", zap.String("path", path), zap.Error(err))
			continue
		}

		e := Entry{Name: de.Name(), Path: path, Size: info.Size(), ModTime: info.ModTime()}
		switch {
		case info.IsDir():
			e.Kind = KindDir
			dirs = append(dirs, e)
		case !l.filter.Match(e.Name):
			continue
		case strings.EqualFold(filepath.Ext(e.Name), playlistExt):
			e.Kind = KindPlaylist
			files = append(files, e)
		default:
			e.Kind = KindAudio
			files = append(files, e)
		}
	}

	sortEntries(dirs, mode, reversed)
	sortEntries(files, mode, reversed)

	out := make([]Entry, 0, len(dirs)+len(files)+1)
	out = append(out, Entry{Name: ParentName, Path: filepath.Dir(filepath.Clean(dir)), Kind: KindParent})
	out = append(out, dirs...)
	return append(out, files...), nil
}

// sortEntries orders like ls: names ascending, largest first, newest first.
// reversed flips the order; names break ties.
func sortEntries(entries []Entry, mode SortMode, reversed bool) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		var c int
		switch mode {
		case SortSize:
			c = cmp.Compare(b.Size, a.Size)
		case SortTime:
			c = b.ModTime.Compare(a.ModTime)
		}
		if c == 0 {
			c = compareNames(a.Name, b.Name)
		}
		if reversed {
			return -c
		}
		return c
	})
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
