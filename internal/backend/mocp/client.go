package mocp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// clearGrace bounds the queue clear sent after an unanswered stop
const clearGrace = 500 * time.Millisecond

// Dialer opens a stream connection to the server
type Dialer func(ctx context.Context) (net.Conn, error)

// Option customizes a Client
type Option func(*Client)

// WithDialer replaces the Unix socket dialer
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		c.dial = d
	}
}

// Client talks to a MOC server over its binary socket protocol.
// Each operation dials, exchanges and closes; a desynchronized stream
// is simply dropped with its connection.
type Client struct {
	logger  *zap.Logger
	socket  string
	timeout time.Duration
	tags    domain.TagReader
	dial    Dialer
}

// New creates a client for the server listening on socket.
// tags may be nil, in which case Sync reports no tags or duration.
func New(socket string, timeout time.Duration, tags domain.TagReader, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		logger:  logger.Named("mocp"),
		socket:  socket,
		timeout: timeout,
		tags:    tags,
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

// Kind reports the mocp backend
func (c *Client) Kind() domain.BackendKind {
	return domain.BackendMocp
}

// do runs one exchange on a fresh connection bounded by the context deadline
func (c *Client) do(ctx context.Context, op string, fn func(*conn) error) (err error) {
	nc, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("mocp %s: connecting to %s: %w", op, c.socket, err)
	}
	defer func() {
		err = multierr.Append(err, nc.Close())
	}()

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && (c.timeout <= 0 || d.Before(deadline)) {
		deadline = d
	}
	if err := nc.SetDeadline(deadline); err != nil {
		return fmt.Errorf("mocp %s: set deadline: %w", op, err)
	}

	if err := fn(newConn(nc)); err != nil {
		if isTimeout(err) {
			return fmt.Errorf("mocp %s: %w", op, domain.ErrUnresponsive)
		}
		return fmt.Errorf("mocp %s: %w", op, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Ping checks that the server socket accepts connections
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", func(*conn) error { return nil })
}

// PlayPause pauses a playing server and resumes a paused one; a stopped server is left alone
func (c *Client) PlayPause(ctx context.Context) error {
	return c.do(ctx, "play_pause", func(cn *conn) error {
		state, err := cn.queryInt(cmdGetState)
		if err != nil {
			return err
		}
		switch state {
		case statePlay:
			return cn.send(cmdPause)
		case statePause:
			return cn.send(cmdUnpause)
		}
		return nil
	})
}

// Stop waits for the server to report the state change before clearing the queue.
// The queue is cleared even when the report never comes.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, "stop", func(cn *conn) error {
		if err := cn.send(cmdStop); err != nil {
			return err
		}
		waitErr := cn.await(evState)
		if isTimeout(waitErr) {
			// the wait used up the write deadline too
			if err := cn.nc.SetWriteDeadline(time.Now().Add(clearGrace)); err != nil {
				return multierr.Append(waitErr, err)
			}
		}
		return multierr.Append(waitErr, cn.send(cmdQueueClear))
	})
}

// Next skips to the next track
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, "next", func(cn *conn) error { return cn.send(cmdNext) })
}

// Prev moves back in the server playlist. The server does not walk the queue
// backwards, so with a queue loaded this may not change the track.
func (c *Client) Prev(ctx context.Context) error {
	return c.do(ctx, "prev", func(cn *conn) error { return cn.send(cmdPrev) })
}

// Enqueue sends a queue add for path and drains the echoed reply
func (c *Client) Enqueue(ctx context.Context, path string) error {
	return c.do(ctx, "enqueue", func(cn *conn) error {
		if err := cn.send(cmdQueueAdd); err != nil {
			return err
		}
		if err := cn.sendString(path); err != nil {
			return err
		}
		return cn.drainList()
	})
}

// ClearQueue empties the server queue
func (c *Client) ClearQueue(ctx context.Context) error {
	return c.do(ctx, "clear_queue", func(cn *conn) error { return cn.send(cmdQueueClear) })
}

// SetRelativeVolume reads the mixer, adds delta and writes it back clamped
func (c *Client) SetRelativeVolume(ctx context.Context, delta int) error {
	return c.do(ctx, "set_volume", func(cn *conn) error {
		vol, err := cn.queryInt(cmdGetMixer)
		if err != nil {
			return err
		}
		return cn.send(cmdSetMixer, uint32(domain.ClampVolume(vol+delta)))
	})
}

// Volume reads the mixer value
func (c *Client) Volume(ctx context.Context) (int, error) {
	var vol int
	err := c.do(ctx, "volume", func(cn *conn) error {
		v, err := cn.queryInt(cmdGetMixer)
		vol = v
		return err
	})
	return domain.ClampVolume(vol), err
}

// Seek moves the position by delta seconds
func (c *Client) Seek(ctx context.Context, delta int) error {
	return c.do(ctx, "seek", func(cn *conn) error {
		return cn.send(cmdSeek, uint32(int32(delta)))
	})
}

// StartQueue resumes the server, then plays with an empty file name so the
// server picks the first queued entry.
func (c *Client) StartQueue(ctx context.Context) error {
	return c.do(ctx, "start_queue", func(cn *conn) error {
		if err := cn.send(cmdUnpause); err != nil {
			return err
		}
		if err := cn.send(cmdPlay); err != nil {
			return err
		}
		return cn.sendString("")
	})
}

// Sync reads state, position and audio parameters from the server.
// The protocol carries no tags, so those and the duration come from the file itself.
func (c *Client) Sync(ctx context.Context) (domain.Status, error) {
	var st domain.Status
	err := c.do(ctx, "sync", func(cn *conn) error {
		vol, err := cn.queryInt(cmdGetMixer)
		if err != nil {
			return err
		}
		st.Volume = vol

		state, err := cn.queryInt(cmdGetState)
		if err != nil {
			return err
		}
		switch state {
		case statePlay:
			st.State = domain.StatePlaying
		case statePause:
			st.State = domain.StatePaused
		default:
			st.State = domain.StateStopped
			return nil
		}

		if st.File, err = cn.queryString(cmdGetSname); err != nil {
			return err
		}
		if st.Elapsed, err = cn.queryInt(cmdGetCtime); err != nil {
			return err
		}
		if st.Bitrate, err = cn.queryInt(cmdGetBitrate); err != nil {
			return err
		}
		khz, err := cn.queryInt(cmdGetRate)
		if err != nil {
			return err
		}
		st.SampleRate = khz * 1000
		return nil
	})
	if err != nil {
		return domain.DefaultStatus(), err
	}

	if st.File != "" && c.tags != nil {
		info := c.tags.ReadTags(st.File)
		st.Title, st.Artist, st.Album = info.Title, info.Artist, info.Album
		st.Total = info.Duration
		if st.Bitrate == 0 {
			st.Bitrate = info.Bitrate
		}
	}

	c.logger.Debug("Synced",
		zap.Stringer("state", st.State),
		zap.String("file", st.File),
		zap.Int("elapsed", st.Elapsed))

	return st.Normalize(), nil
}
