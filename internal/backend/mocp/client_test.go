package mocp

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeServer is a minimal MOC server speaking the socket protocol over net.Pipe
type fakeServer struct {
	mu      sync.Mutex
	state   uint32
	volume  uint32
	file    string
	ctime   uint32
	queue   []string
	frames  []int // length frames received with queue adds
	cmds    []uint32
	silent  bool
	garbage []byte // bytes sent before every data token

	// quietStop drops the state event after a stop, as a server that was already stopped does
	quietStop bool

	wg sync.WaitGroup
}

func newFakeServer() *fakeServer {
	return &fakeServer{state: stateStop, volume: 50}
}

func (f *fakeServer) dialer() Dialer {
	return func(ctx context.Context) (net.Conn, error) {
		client, server := net.Pipe()
		f.wg.Add(1)
		go f.serve(server)
		return client, nil
	}
}

func word(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func readWord(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (f *fakeServer) data(nc net.Conn, payload ...[]byte) {
	msg := append([]byte{}, f.garbage...)
	msg = append(msg, word(uint32(evData))...)
	for _, p := range payload {
		msg = append(msg, p...)
	}
	_, _ = nc.Write(msg)
}

// settle waits until every connection handler has seen its client hang up
func (f *fakeServer) settle() {
	f.wg.Wait()
}

func (f *fakeServer) serve(nc net.Conn) {
	defer f.wg.Done()
	defer nc.Close()
	for {
		cmd, err := readWord(nc)
		if err != nil {
			return
		}

		f.mu.Lock()
		f.cmds = append(f.cmds, cmd)
		silent := f.silent
		f.mu.Unlock()
		if silent {
			continue
		}

		switch cmd {
		case cmdGetState:
			f.data(nc, word(f.get(&f.state)))
		case cmdPause:
			f.set(&f.state, statePause)
		case cmdUnpause:
			if f.get(&f.state) == statePause {
				f.set(&f.state, statePlay)
			}
		case cmdStop:
			f.set(&f.state, stateStop)
			f.mu.Lock()
			quiet := f.quietStop
			f.mu.Unlock()
			if !quiet {
				_, _ = nc.Write(word(uint32(evState)))
			}
		case cmdQueueClear:
			f.mu.Lock()
			f.queue = nil
			f.mu.Unlock()
		case cmdGetMixer:
			f.data(nc, word(f.get(&f.volume)))
		case cmdSetMixer:
			v, err := readWord(nc)
			if err != nil {
				return
			}
			f.set(&f.volume, v)
		case cmdQueueAdd:
			n, err := readWord(nc)
			if err != nil {
				return
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(nc, buf); err != nil {
				return
			}
			f.mu.Lock()
			f.frames = append(f.frames, int(n))
			f.queue = append(f.queue, string(buf))
			f.mu.Unlock()

			reply := append(word(0x3c), word(n)...)
			reply = append(reply, buf...)
			reply = append(reply, word(endOfList)...)
			reply = append(reply, make([]byte, queueTrailer)...)
			_, _ = nc.Write(reply)
		case cmdPlay:
			n, err := readWord(nc)
			if err != nil {
				return
			}
			if _, err := io.CopyN(io.Discard, nc, int64(n)); err != nil {
				return
			}
			f.set(&f.state, statePlay)
		case cmdGetSname:
			f.mu.Lock()
			name := f.file
			f.mu.Unlock()
			f.data(nc, word(uint32(len(name))), []byte(name))
		case cmdGetCtime:
			f.data(nc, word(f.get(&f.ctime)))
		case cmdGetBitrate:
			f.data(nc, word(320))
		case cmdGetRate:
			f.data(nc, word(44))
		case cmdSeek:
			if _, err := readWord(nc); err != nil {
				return
			}
		}
	}
}

func (f *fakeServer) get(p *uint32) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *p
}

func (f *fakeServer) set(p *uint32, v uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*p = v
}

func newTestClient(f *fakeServer, tags domain.TagReader) *Client {
	return New("/nonexistent/socket2", time.Second, tags, zap.NewNop(), WithDialer(f.dialer()))
}

func TestEnqueue_LengthFrame(t *testing.T) {
	paths := []string{
		"/music/plain.mp3",
		"/music/with spaces/track 01.flac",
		"/music/Sigur Rós/Ágætis byrjun/01 Intro.ogg",
		"/music/日本語/曲.wav",
	}

	f := newFakeServer()
	c := newTestClient(f, nil)

	for _, p := range paths {
		require.NoError(t, c.Enqueue(t.Context(), p))
	}
	f.settle()

	assert.Equal(t, paths, f.queue)
	require.Len(t, f.frames, len(paths))
	for i, p := range paths {
		assert.Equal(t, len([]byte(p)), f.frames[i], "frame for %q", p)
	}
}

func TestEnqueue_UnalignedPaths(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"Success - 13 bytes", "/music/ab.mp3"},
		{"Success - 15 bytes", "/music/abcd.mp3"},
		{"Success - 17 bytes with unicode", "/m/Sigur Rós.ogg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServer()
			c := New("/nonexistent/socket2", 2*time.Second, nil, zap.NewNop(), WithDialer(f.dialer()))

			start := time.Now()
			require.NoError(t, c.Enqueue(t.Context(), tt.path))
			f.settle()

			assert.Less(t, time.Since(start), time.Second)
			assert.Equal(t, []string{tt.path}, f.queue)
		})
	}
}

func TestPlayPause_Involution(t *testing.T) {
	tests := []struct {
		name  string
		start uint32
		after uint32
	}{
		{"Success - Playing pauses", statePlay, statePause},
		{"Success - Paused resumes", statePause, statePlay},
		{"Success - Stopped is a no-op", stateStop, stateStop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServer()
			f.state = tt.start
			c := newTestClient(f, nil)

			require.NoError(t, c.PlayPause(t.Context()))
			f.settle()
			assert.Equal(t, tt.after, f.get(&f.state))

			require.NoError(t, c.PlayPause(t.Context()))
			f.settle()
			assert.Equal(t, tt.start, f.get(&f.state))
		})
	}
}

func TestSetRelativeVolume_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		start uint32
		delta int
		want  uint32
	}{
		{"Success - Inside range", 50, -5, 45},
		{"Success - Clamps at 100", 98, 5, 100},
		{"Success - Clamps at 0", 3, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServer()
			f.volume = tt.start
			c := newTestClient(f, nil)

			require.NoError(t, c.SetRelativeVolume(t.Context(), tt.delta))
			f.settle()
			assert.Equal(t, tt.want, f.get(&f.volume))

			got, err := c.Volume(t.Context())
			require.NoError(t, err)
			assert.Equal(t, int(tt.want), got)
		})
	}
}

func TestStop_ClearsQueueAfterStateEvent(t *testing.T) {
	f := newFakeServer()
	f.state = statePlay
	f.queue = []string{"/m/a.mp3", "/m/b.mp3"}
	c := newTestClient(f, nil)

	require.NoError(t, c.Stop(t.Context()))
	f.settle()

	assert.Equal(t, uint32(stateStop), f.get(&f.state))
	assert.Empty(t, f.queue)
	assert.Equal(t, []uint32{cmdStop, cmdQueueClear}, f.cmds)
}

func TestStop_ClearsQueueWithoutStateEvent(t *testing.T) {
	f := newFakeServer()
	f.quietStop = true
	f.queue = []string{"/m/a.mp3"}
	c := New("/nonexistent", 50*time.Millisecond, nil, zap.NewNop(), WithDialer(f.dialer()))

	err := c.Stop(t.Context())
	f.settle()

	assert.ErrorIs(t, err, domain.ErrUnresponsive)
	assert.Empty(t, f.queue)
	assert.Equal(t, []uint32{cmdStop, cmdQueueClear}, f.cmds)
}

func TestStartQueue(t *testing.T) {
	f := newFakeServer()
	c := newTestClient(f, nil)

	require.NoError(t, c.StartQueue(t.Context()))
	f.settle()

	assert.Equal(t, []uint32{cmdUnpause, cmdPlay}, f.cmds)
	assert.Equal(t, uint32(statePlay), f.get(&f.state))
}

func TestUnresponsiveServer(t *testing.T) {
	f := newFakeServer()
	f.silent = true
	c := New("/nonexistent", 50*time.Millisecond, nil, zap.NewNop(), WithDialer(f.dialer()))

	start := time.Now()
	_, err := c.Volume(t.Context())

	assert.ErrorIs(t, err, domain.ErrUnresponsive)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestContextDeadlineBoundsWait(t *testing.T) {
	f := newFakeServer()
	f.silent = true
	c := New("/nonexistent", time.Hour, nil, zap.NewNop(), WithDialer(f.dialer()))

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()

	err := c.PlayPause(ctx)
	assert.ErrorIs(t, err, domain.ErrUnresponsive)
}

func TestDialFailure(t *testing.T) {
	c := New("/nonexistent/socket2", time.Second, nil, zap.NewNop())

	err := c.Ping(t.Context())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/socket2")
}

type stubTags map[string]domain.TrackInfo

func (s stubTags) ReadTags(path string) domain.TrackInfo { return s[path] }

func TestSync(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*fakeServer)
		tags    domain.TagReader
		want    domain.Status
		garbage []byte
	}{
		{
			name: "Success - Playing with local tags",
			setup: func(f *fakeServer) {
				f.state = statePlay
				f.file = "/music/Queen/bohemian rhapsody.mp3"
				f.ctime = 75
				f.volume = 70
			},
			tags: stubTags{"/music/Queen/bohemian rhapsody.mp3": {
				Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Duration: 355,
			}},
			want: domain.Status{
				State: domain.StatePlaying, File: "/music/Queen/bohemian rhapsody.mp3",
				Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera",
				Elapsed: 75, Total: 355, Bitrate: 320, SampleRate: 44000, Volume: 70,
			},
		},
		{
			name: "Success - Paused without tag reader",
			setup: func(f *fakeServer) {
				f.state = statePause
				f.file = "/music/x.flac"
				f.ctime = 3
			},
			want: domain.Status{
				State: domain.StatePaused, File: "/music/x.flac",
				Elapsed: 3, Total: 1, Bitrate: 320, SampleRate: 44000, Volume: 50,
			},
		},
		{
			name:  "Success - Stopped reports volume only",
			setup: func(f *fakeServer) { f.volume = 20 },
			want:  domain.Status{State: domain.StateStopped, Total: 1, Volume: 20},
		},
		{
			name: "Success - Noise before data tokens is skipped",
			setup: func(f *fakeServer) {
				f.state = statePlay
				f.file = "/m/a.mp3"
			},
			garbage: []byte{0x02, 0x00, 0x00},
			want: domain.Status{
				State: domain.StatePlaying, File: "/m/a.mp3",
				Total: 1, Bitrate: 320, SampleRate: 44000, Volume: 50,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeServer()
			f.garbage = tt.garbage
			tt.setup(f)
			c := newTestClient(f, tt.tags)

			got, err := c.Sync(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
