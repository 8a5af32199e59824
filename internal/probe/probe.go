package probe

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/genricoloni/synthia/internal/domain"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/meta"
	"go.uber.org/zap"
)

// maxEntries bounds the cache; it is dropped wholesale when full
const maxEntries = 512

// Reader extracts tags and stream properties from local audio files.
// Results are cached per path, failures included.
type Reader struct {
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]domain.TrackInfo
}

// NewReader creates a Reader with an empty cache
func NewReader(logger *zap.Logger) *Reader {
	return &Reader{
		logger: logger.Named("probe"),
		cache:  make(map[string]domain.TrackInfo),
	}
}

// ReadTags returns what can be learned about path. Unknown formats and
// unreadable files yield an empty TrackInfo.
func (r *Reader) ReadTags(path string) domain.TrackInfo {
	r.mu.Lock()
	info, ok := r.cache[path]
	r.mu.Unlock()
	if ok {
		return info
	}

	info = r.read(path)

	r.mu.Lock()
	if len(r.cache) >= maxEntries {
		clear(r.cache)
	}
	r.cache[path] = info
	r.mu.Unlock()
	return info
}

func (r *Reader) read(path string) domain.TrackInfo {
	var (
		info domain.TrackInfo
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		info, err = readMP3(path)
	case ".flac":
		info, err = readFLAC(path)
	case ".ogg", ".oga":
		info, err = readOGG(path)
	case ".wav":
		info, err = readWAV(path)
	default:
		return info
	}
	if err != nil {
		r.logger.Debug("Could not probe file", zap.String("path", path), zap.Error(err))
	}
	return info
}

func readMP3(path string) (domain.TrackInfo, error) {
	var info domain.TrackInfo

	if tag, err := id3v2.Open(path, id3v2.Options{Parse: true}); err == nil {
		info.Title = strings.TrimSpace(tag.Title())
		info.Artist = strings.TrimSpace(tag.Artist())
		info.Album = strings.TrimSpace(tag.Album())
		tag.Close()
	}

	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return info, err
	}
	// decoded output is 16-bit stereo
	if rate := dec.SampleRate(); rate > 0 {
		info.Duration = int(dec.Length() / int64(4*rate))
	}
	info.Bitrate = bitrateOf(f, info.Duration)
	return info, nil
}

func readFLAC(path string) (domain.TrackInfo, error) {
	var info domain.TrackInfo

	stream, err := flac.ParseFile(path)
	if err != nil {
		return info, err
	}
	defer stream.Close()

	if si := stream.Info; si != nil && si.SampleRate > 0 {
		info.Duration = int(si.NSamples / uint64(si.SampleRate))
	}
	for _, block := range stream.Blocks {
		vc, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, kv := range vc.Tags {
			applyComment(&info, kv[0], kv[1])
		}
	}

	if f, err := os.Open(path); err == nil {
		info.Bitrate = bitrateOf(f, info.Duration)
		f.Close()
	}
	return info, nil
}

func readOGG(path string) (domain.TrackInfo, error) {
	var info domain.TrackInfo

	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	rd, err := oggvorbis.NewReader(f)
	if err != nil {
		return info, err
	}
	for _, c := range rd.CommentHeader().Comments {
		if k, v, ok := strings.Cut(c, "="); ok {
			applyComment(&info, k, v)
		}
	}
	if rate := rd.SampleRate(); rate > 0 {
		info.Duration = int(rd.Length() / int64(rate))
	}
	info.Bitrate = rd.Bitrate().Nominal / 1000
	if info.Bitrate <= 0 {
		info.Bitrate = bitrateOf(f, info.Duration)
	}
	return info, nil
}

func readWAV(path string) (domain.TrackInfo, error) {
	var info domain.TrackInfo

	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return info, os.ErrInvalid
	}
	if err := dec.FwdToPCM(); err != nil {
		return info, err
	}
	if dec.AvgBytesPerSec > 0 {
		info.Duration = int(dec.PCMLen() / int64(dec.AvgBytesPerSec))
		info.Bitrate = int(dec.AvgBytesPerSec) * 8 / 1000
	}

	// the INFO list usually trails the data chunk, so walk the file again
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return info, err
	}
	// a damaged tag block still leaves the stream properties
	_ = readInfoList(f, &info)
	return info, nil
}

var (
	listID = [4]byte{'L', 'I', 'S', 'T'}
	infoID = [4]byte{'I', 'N', 'F', 'O'}
)

// readInfoList walks the RIFF chunks and applies the first LIST/INFO block
func readInfoList(rs io.ReadSeeker, info *domain.TrackInfo) error {
	p := riff.New(rs)
	if err := p.ParseHeaders(); err != nil {
		return err
	}
	for {
		ch, err := p.NextChunk()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if ch.ID != listID {
			if _, err := rs.Seek(int64(ch.Size), io.SeekCurrent); err != nil {
				return err
			}
			continue
		}

		body, err := io.ReadAll(io.LimitReader(ch, int64(ch.Size)))
		if err != nil {
			return err
		}
		if len(body) >= 4 && [4]byte(body[:4]) == infoID {
			applyInfo(info, body[4:])
			return nil
		}
	}
}

// applyInfo maps INFO entries onto info. Writers disagree on padding odd
// sized values, so a pad byte is skipped only when it is there.
func applyInfo(info *domain.TrackInfo, b []byte) {
	for len(b) >= 8 {
		id := string(b[:4])
		n := min(int(binary.LittleEndian.Uint32(b[4:8])), len(b)-8)
		value, _, _ := strings.Cut(string(b[8:8+n]), "\x00")
		b = b[8+n:]
		if n%2 == 1 && len(b) > 0 && b[0] == 0 {
			b = b[1:]
		}

		switch id {
		case "INAM":
			info.Title = strings.TrimSpace(value)
		case "IART":
			info.Artist = strings.TrimSpace(value)
		case "IPRD":
			info.Album = strings.TrimSpace(value)
		}
	}
}

// applyComment maps a Vorbis comment field onto info
func applyComment(info *domain.TrackInfo, key, value string) {
	value = strings.TrimSpace(value)
	switch strings.ToUpper(key) {
	case "TITLE":
		info.Title = value
	case "ARTIST":
		info.Artist = value
	case "ALBUM":
		info.Album = value
	}
}

// bitrateOf estimates the average bitrate in kbps from the file size
func bitrateOf(f *os.File, seconds int) int {
	if seconds <= 0 {
		return 0
	}
	st, err := f.Stat()
	if err != nil {
		return 0
	}
	return int(st.Size() * 8 / int64(seconds) / 1000)
}
