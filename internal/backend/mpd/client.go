package mpd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Conn is the subset of the gompd client used by the backend
type Conn interface {
	Close() error
	Ping() error
	Status() (mpd.Attrs, error)
	CurrentSong() (mpd.Attrs, error)
	Pause(pause bool) error
	Play(pos int) error
	Stop() error
	Next() error
	Previous() error
	Clear() error
	Add(uri string) error
	SetVolume(volume int) error
	SeekCur(d time.Duration, relative bool) error
	Update(uri string) (int, error)
}

// Dialer opens an MPD command connection
type Dialer func() (Conn, error)

// Option customizes a Client
type Option func(*Client)

// WithDialer replaces the gompd dialer
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// Client controls MPD through short-lived gompd connections
type Client struct {
	logger  *zap.Logger
	network string
	addr    string
	dial    Dialer
}

// New creates a client for the daemon at addr ("host:port" over tcp, or a socket path over unix)
func New(network, addr, password string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		logger:  logger.Named("mpd"),
		network: network,
		addr:    addr,
	}
	c.dial = func() (Conn, error) {
		if password != "" {
			return mpd.DialAuthenticated(network, addr, password)
		}
		return mpd.Dial(network, addr)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind reports the mpd backend
func (c *Client) Kind() domain.BackendKind {
	return domain.BackendMPD
}

// do runs fn on a fresh connection. gompd has no deadlines of its own, so the
// exchange runs in a goroutine; when ctx expires the connection is closed
// under it, which fails the pending read and ends the goroutine.
func (c *Client) do(ctx context.Context, op string, fn func(Conn) error) error {
	dialed := make(chan Conn, 1)
	done := make(chan error, 1)

	go func() {
		conn, err := c.dial()
		if err != nil {
			done <- fmt.Errorf("connecting to %s %s: %w", c.network, c.addr, err)
			return
		}
		dialed <- conn
		done <- fn(conn)
	}()

	select {
	case err := <-done:
		select {
		case conn := <-dialed:
			err = multierr.Append(err, conn.Close())
		default:
		}
		if err != nil {
			return fmt.Errorf("mpd %s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
		go closeWhenDialed(dialed, done)
		return fmt.Errorf("mpd %s: %w", op, domain.ErrUnresponsive)
	}
}

// closeWhenDialed closes the connection of an abandoned exchange as soon as it exists
func closeWhenDialed(dialed <-chan Conn, done <-chan error) {
	select {
	case conn := <-dialed:
		_ = conn.Close()
	case <-done:
		// the exchange finished on its own; its connection, if any, is still queued
		select {
		case conn := <-dialed:
			_ = conn.Close()
		default:
		}
	}
}

// Ping sends a ping on a fresh connection
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func(conn Conn) error { return conn.Ping() })
}

// PlayPause reads the state and issues an explicit pause or resume
func (c *Client) PlayPause(ctx context.Context) error {
	return c.do(ctx, "play_pause", func(conn Conn) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		switch status["state"] {
		case "play":
			return conn.Pause(true)
		case "pause":
			return conn.Pause(false)
		}
		return nil
	})
}

// Stop halts playback and clears the queue
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, "stop", func(conn Conn) error {
		if err := conn.Stop(); err != nil {
			return err
		}
		return conn.Clear()
	})
}

// Next skips to the next song in the queue
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, "next", func(conn Conn) error { return conn.Next() })
}

// Prev goes back to the previous song in the queue
func (c *Client) Prev(ctx context.Context) error {
	return c.do(ctx, "prev", func(conn Conn) error { return conn.Previous() })
}

// Enqueue adds an absolute path; MPD accepts file:// URIs from local clients
func (c *Client) Enqueue(ctx context.Context, path string) error {
	return c.do(ctx, "enqueue", func(conn Conn) error { return conn.Add("file://" + path) })
}

// ClearQueue empties the queue
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.do(ctx, "clear_queue", func(conn Conn) error { return conn.Clear() })
}

// SetRelativeVolume reads the volume from status and writes it back shifted and clamped
func (c *Client) SetRelativeVolume(ctx context.Context, delta int) error {
	return c.do(ctx, "set_volume", func(conn Conn) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		return conn.SetVolume(domain.ClampVolume(volumeOf(status) + delta))
	})
}

// Volume reads the mixer volume from status
func (c *Client) Volume(ctx context.Context) (int, error) {
	var vol int
	err := c.do(ctx, "volume", func(conn Conn) error {
		status, err := conn.Status()
		if err != nil {
			return err
		}
		vol = volumeOf(status)
		return nil
	})
	return vol, err
}

// Seek shifts relative to the current position; the daemon clamps at the track start
func (c *Client) Seek(ctx context.Context, delta int) error {
	return c.do(ctx, "seek", func(conn Conn) error {
		return conn.SeekCur(time.Duration(delta)*time.Second, true)
	})
}

// StartQueue plays the queue from its current position
func (c *Client) StartQueue(ctx context.Context) error {
	return c.do(ctx, "start_queue", func(conn Conn) error { return conn.Play(-1) })
}

// UpdateLibrary rescans the whole music directory
func (c *Client) UpdateLibrary(ctx context.Context) error {
	return c.do(ctx, "update", func(conn Conn) error {
		job, err := conn.Update("")
		if err != nil {
			return err
		}
		c.logger.Info("Library update started", zap.Int("job", job))
		return nil
	})
}

// Sync reads status and currentsong
func (c *Client) Sync(ctx context.Context) (domain.Status, error) {
	var status, song mpd.Attrs
	err := c.do(ctx, "sync", func(conn Conn) error {
		var err error
		if status, err = conn.Status(); err != nil {
			return err
		}
		song, err = conn.CurrentSong()
		return err
	})
	if err != nil {
		return domain.DefaultStatus(), err
	}
	return statusFromAttrs(status, song), nil
}

// statusFromAttrs maps the status and currentsong replies onto a Status.
// Missing or malformed fields read as zero.
func statusFromAttrs(status, song mpd.Attrs) domain.Status {
	st := domain.Status{Volume: volumeOf(status)}

	switch status["state"] {
	case "play":
		st.State = domain.StatePlaying
	case "pause":
		st.State = domain.StatePaused
	default:
		return st.Normalize()
	}

	st.File = song["file"]
	st.Title = song["Title"]
	st.Artist = song["Artist"]
	st.Album = song["Album"]
	st.Elapsed = int(atof(status["elapsed"]))
	st.Bitrate = atoi(status["bitrate"])

	st.Total = int(atof(status["duration"]))
	if st.Total == 0 {
		st.Total = atoi(song["Time"])
	}

	// audio is "samplerate:bits:channels"
	if rate, _, ok := strings.Cut(status["audio"], ":"); ok {
		st.SampleRate = atoi(rate)
	}

	return st.Normalize()
}

// volumeOf reads the mixer volume; -1 (no mixer) reads as 0
func volumeOf(status mpd.Attrs) int {
	return domain.ClampVolume(atoi(status["volume"]))
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
