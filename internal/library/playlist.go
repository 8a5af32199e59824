package library

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Playlist loads an .m3u8 file as a browsable view. Comment lines are
// dropped, relative lines are resolved against the playlist's folder and
// lines naming missing files are skipped with a warning. The parent entry
// leads back to the folder holding the playlist. Failures never propagate:
// an unreadable playlist yields just the parent entry.
func (l *Lister) Playlist(path string) []Entry {
	base := filepath.Dir(path)
	entries := []Entry{{Name: ParentName, Path: base, Kind: KindParent}}

	f, err := os.Open(path)
	if err != nil {
		l.logger.Warn("Could not open playlist", zap.String("playlist", path), zap.Error(err))
		return entries
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		target := line
		if !filepath.IsAbs(target) {
			target = filepath.Join(base, target)
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			l.logger.Warn("Skipping playlist entry that is not a file",
				zap.String("playlist", path),
				zap.String("entry", line))
			continue
		}

		entries = append(entries, Entry{
			Name:    line,
			Path:    filepath.Clean(target),
			Kind:    KindAudio,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	if err := scanner.Err(); err != nil {
		l.logger.Warn("Playlist read stopped early", zap.String("playlist", path), zap.Error(err))
	}
	return entries
}
