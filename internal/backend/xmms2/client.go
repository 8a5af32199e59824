package xmms2

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Playback status codes
const (
	statusStop  = 0
	statusPlay  = 1
	statusPause = 2
)

const seekSet = 0

// Dialer opens a stream connection to the daemon
type Dialer func(ctx context.Context) (net.Conn, error)

// Option customizes a Client
type Option func(*Client)

// WithDialer replaces the Unix socket dialer
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// Client controls an XMMS2 daemon over its IPC socket
type Client struct {
	logger  *zap.Logger
	socket  string
	timeout time.Duration
	dial    Dialer
}

// New creates a client for the daemon listening on socket
func New(socket string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		logger:  logger.Named("xmms2"),
		socket:  socket,
		timeout: timeout,
	}
	c.dial = func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", c.socket)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind reports the xmms2 backend
func (c *Client) Kind() domain.BackendKind {
	return domain.BackendXmms2
}

// do connects, introduces the client and runs fn
func (c *Client) do(ctx context.Context, op string, fn func(context.Context, *ipc) error) (err error) {
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	nc, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("xmms2 %s: connecting to %s: %w", op, c.socket, err)
	}
	conn := newIPC(nc, c.logger)
	defer func() {
		err = multierr.Append(err, conn.Close())
	}()

	if _, err := await(ctx, conn.call(objMain, cmdHello, protocolVersion, clientName)); err != nil {
		return fmt.Errorf("xmms2 %s: hello: %w", op, err)
	}
	if err := fn(ctx, conn); err != nil {
		return fmt.Errorf("xmms2 %s: %w", op, err)
	}
	return nil
}

// Ping connects and completes the hello exchange
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func(context.Context, *ipc) error { return nil })
}

// PlayPause pauses a playing daemon and resumes a paused one; a stopped daemon is left alone
func (c *Client) PlayPause(ctx context.Context) error {
	return c.do(ctx, "play_pause", func(ctx context.Context, conn *ipc) error {
		status, err := awaitInt(ctx, conn.call(objPlayback, cmdPlaybackStatus))
		if err != nil {
			return err
		}
		switch status {
		case statusPlay:
			_, err = await(ctx, conn.call(objPlayback, cmdPlaybackPause))
		case statusPause:
			_, err = await(ctx, conn.call(objPlayback, cmdPlaybackStart))
		}
		return err
	})
}

// Stop halts playback and clears the active playlist
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, "stop", func(ctx context.Context, conn *ipc) error {
		if _, err := await(ctx, conn.call(objPlayback, cmdPlaybackStop)); err != nil {
			return err
		}
		_, err := await(ctx, conn.call(objPlaylist, cmdPlaylistClear, activePlaylist))
		return err
	})
}

// Next skips to the next playlist entry
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, "next", func(ctx context.Context, conn *ipc) error { return c.jump(ctx, conn, 1) })
}

// Prev moves one entry back on the active playlist
func (c *Client) Prev(ctx context.Context) error {
	return c.do(ctx, "prev", func(ctx context.Context, conn *ipc) error { return c.jump(ctx, conn, -1) })
}

func (c *Client) jump(ctx context.Context, conn *ipc, delta int) error {
	if _, err := await(ctx, conn.call(objPlaylist, cmdPlaylistSetNextRel, delta)); err != nil {
		return err
	}
	_, err := await(ctx, conn.call(objPlayback, cmdPlaybackTickle))
	return err
}

// Enqueue appends path to the active playlist as a file URL
func (c *Client) Enqueue(ctx context.Context, path string) error {
	return c.do(ctx, "enqueue", func(ctx context.Context, conn *ipc) error {
		_, err := await(ctx, conn.call(objPlaylist, cmdPlaylistAddURL, activePlaylist, "file://"+encodeURL(path)))
		return err
	})
}

// ClearQueue empties the active playlist
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.do(ctx, "clear_queue", func(ctx context.Context, conn *ipc) error {
		_, err := await(ctx, conn.call(objPlaylist, cmdPlaylistClear, activePlaylist))
		return err
	})
}

// SetRelativeVolume shifts the master channel, or every channel when the
// output has no master.
func (c *Client) SetRelativeVolume(ctx context.Context, delta int) error {
	return c.do(ctx, "set_volume", func(ctx context.Context, conn *ipc) error {
		channels, err := awaitDict(ctx, conn.call(objPlayback, cmdPlaybackVolumeGet))
		if err != nil {
			return err
		}
		target := domain.ClampVolume(volumeOf(channels) + delta)

		names := []string{"master"}
		if _, ok := channels["master"]; !ok {
			names = sortedKeys(channels)
		}
		for _, name := range names {
			if _, err := await(ctx, conn.call(objPlayback, cmdPlaybackVolumeSet, name, target)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Volume reads the master channel, or the mean of all channels
func (c *Client) Volume(ctx context.Context) (int, error) {
	var vol int
	err := c.do(ctx, "volume", func(ctx context.Context, conn *ipc) error {
		channels, err := awaitDict(ctx, conn.call(objPlayback, cmdPlaybackVolumeGet))
		vol = volumeOf(channels)
		return err
	})
	return vol, err
}

// Seek reads the playtime and seeks to the shifted absolute position, never before 0
func (c *Client) Seek(ctx context.Context, delta int) error {
	return c.do(ctx, "seek", func(ctx context.Context, conn *ipc) error {
		ms, err := awaitInt(ctx, conn.call(objPlayback, cmdPlaybackPlaytime))
		if err != nil {
			return err
		}
		target := max(ms+delta*1000, 0)
		_, err = await(ctx, conn.call(objPlayback, cmdPlaybackSeekMs, target, seekSet))
		return err
	})
}

// StartQueue starts playback of the active playlist
func (c *Client) StartQueue(ctx context.Context) error {
	return c.do(ctx, "start_queue", func(ctx context.Context, conn *ipc) error {
		_, err := await(ctx, conn.call(objPlayback, cmdPlaybackStart))
		return err
	})
}

// Sync reads state, volume, position and medialib info of the current entry
func (c *Client) Sync(ctx context.Context) (domain.Status, error) {
	var st domain.Status
	err := c.do(ctx, "sync", func(ctx context.Context, conn *ipc) error {
		// issue everything up front, then collect
		statusRes := conn.call(objPlayback, cmdPlaybackStatus)
		volumeRes := conn.call(objPlayback, cmdPlaybackVolumeGet)
		idRes := conn.call(objPlayback, cmdPlaybackCurrentID)
		timeRes := conn.call(objPlayback, cmdPlaybackPlaytime)

		status, err := awaitInt(ctx, statusRes)
		if err != nil {
			return err
		}
		channels, err := awaitDict(ctx, volumeRes)
		if err != nil {
			return err
		}
		st.Volume = volumeOf(channels)

		switch status {
		case statusPlay:
			st.State = domain.StatePlaying
		case statusPause:
			st.State = domain.StatePaused
		default:
			st.State = domain.StateStopped
			return nil
		}

		id, err := awaitInt(ctx, idRes)
		if err != nil {
			return err
		}
		ms, err := awaitInt(ctx, timeRes)
		if err != nil {
			return err
		}
		st.Elapsed = ms / 1000

		info, err := awaitDict(ctx, conn.call(objMedialib, cmdMedialibGetInfo, id))
		if err != nil {
			return err
		}
		applyInfo(&st, info)
		return nil
	})
	if err != nil {
		return domain.DefaultStatus(), err
	}
	return st.Normalize(), nil
}

// applyInfo copies medialib properties onto st
func applyInfo(st *domain.Status, info map[string]any) {
	props := propDict(info)

	if u := props.str("url"); u != "" {
		st.File = decodeURL(u)
	}
	st.Title = props.str("title")
	st.Artist = props.str("artist")
	st.Album = props.str("album")
	st.Total = props.num("duration") / 1000
	st.Bitrate = props.num("bitrate") / 1000
	st.SampleRate = props.num("samplerate")
}

// propDict maps a property to its value per source
type propDict map[string]any

// sourcePreference lists the sources consulted first, in order
var sourcePreference = []string{"server", "plugin/id3v2"}

func (p propDict) get(key string) any {
	sources, ok := p[key].(map[string]any)
	if !ok {
		return nil
	}
	for _, src := range sourcePreference {
		if v, ok := sources[src]; ok {
			return v
		}
	}
	if keys := sortedKeys(sources); len(keys) > 0 {
		return sources[keys[0]]
	}
	return nil
}

func (p propDict) str(key string) string {
	s, _ := p.get(key).(string)
	return s
}

func (p propDict) num(key string) int {
	n, _ := p.get(key).(int)
	return n
}

// volumeOf returns the master channel, or the mean of all channels
func volumeOf(channels map[string]any) int {
	if v, ok := channels["master"].(int); ok {
		return domain.ClampVolume(v)
	}
	sum, n := 0, 0
	for _, v := range channels {
		if i, ok := v.(int); ok {
			sum += i
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return domain.ClampVolume(sum / n)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// encodeURL escapes a path the way the daemon stores urls: space becomes '+',
// bytes outside [A-Za-z0-9:/-._] become %XX.
func encodeURL(path string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch {
		case ch == ' ':
			b.WriteByte('+')
		case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z', '0' <= ch && ch <= '9',
			ch == ':', ch == '/', ch == '-', ch == '.', ch == '_':
			b.WriteByte(ch)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[ch>>4])
			b.WriteByte(hex[ch&0x0f])
		}
	}
	return b.String()
}

// decodeURL turns a medialib url back into a local path when it is a file url
func decodeURL(u string) string {
	rest, ok := strings.CutPrefix(u, "file://")
	if !ok {
		return u
	}
	if p, err := url.QueryUnescape(rest); err == nil {
		return p
	}
	return rest
}
