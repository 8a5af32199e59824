package xmms2

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/zap"
)

// IPC object ids
const (
	objMain     uint32 = 1
	objPlaylist uint32 = 2
	objPlayback uint32 = 4
	objMedialib uint32 = 5
)

// Reply command ids
const (
	cmdReply uint32 = 0
	cmdError uint32 = 1
)

// Method command ids, numbered from the first non-reply id in declaration order
const (
	cmdHello uint32 = 32

	cmdPlaylistSetNextRel uint32 = 34
	cmdPlaylistAddURL     uint32 = 35
	cmdPlaylistClear      uint32 = 39

	cmdPlaybackStart     uint32 = 32
	cmdPlaybackStop      uint32 = 33
	cmdPlaybackPause     uint32 = 34
	cmdPlaybackTickle    uint32 = 35
	cmdPlaybackPlaytime  uint32 = 36
	cmdPlaybackSeekMs    uint32 = 37
	cmdPlaybackStatus    uint32 = 39
	cmdPlaybackCurrentID uint32 = 40
	cmdPlaybackVolumeSet uint32 = 41
	cmdPlaybackVolumeGet uint32 = 42

	cmdMedialibGetInfo uint32 = 32
)

const (
	protocolVersion = 23
	clientName      = "synthia"
	activePlaylist  = "_active"

	headerSize = 16
	maxPayload = 1 << 24
)

var errClosed = errors.New("connection closed")

// header is the fixed frame prefix, all fields big-endian
type header struct {
	object  uint32
	command uint32
	cookie  uint32
	length  uint32
}

func (h header) append(buf []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, h.object)
	buf = binary.BigEndian.AppendUint32(buf, h.command)
	buf = binary.BigEndian.AppendUint32(buf, h.cookie)
	return binary.BigEndian.AppendUint32(buf, h.length)
}

func readFrame(r io.Reader) (header, []byte, error) {
	var b [headerSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return header{}, nil, err
	}
	h := header{
		object:  binary.BigEndian.Uint32(b[0:4]),
		command: binary.BigEndian.Uint32(b[4:8]),
		cookie:  binary.BigEndian.Uint32(b[8:12]),
		length:  binary.BigEndian.Uint32(b[12:16]),
	}
	if h.length > maxPayload {
		return h, nil, fmt.Errorf("%w: frame of %d bytes", domain.ErrProtocol, h.length)
	}
	payload := make([]byte, h.length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return h, nil, err
	}
	return h, payload, nil
}

// ipc multiplexes method calls over one socket. Replies are matched to
// calls by cookie on a dedicated reader goroutine.
type ipc struct {
	nc     net.Conn
	logger *zap.Logger

	wmu sync.Mutex

	mu      sync.Mutex
	cookie  uint32
	pending map[uint32]*Result
	err     error

	done chan struct{}
}

func newIPC(nc net.Conn, logger *zap.Logger) *ipc {
	c := &ipc{
		nc:      nc,
		logger:  logger,
		pending: make(map[uint32]*Result),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// call sends a method invocation and returns its deferred result
func (c *ipc) call(object, command uint32, args ...any) *Result {
	res := newResult()

	payload, err := encodeList(nil, args)
	if err != nil {
		res.fail(err)
		return res
	}

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		res.fail(err)
		return res
	}
	cookie := c.cookie
	c.cookie++
	c.pending[cookie] = res
	c.mu.Unlock()

	frame := header{object: object, command: command, cookie: cookie, length: uint32(len(payload))}.append(nil)
	frame = append(frame, payload...)

	c.wmu.Lock()
	_, err = c.nc.Write(frame)
	c.wmu.Unlock()

	if err != nil {
		c.mu.Lock()
		delete(c.pending, cookie)
		c.mu.Unlock()
		res.fail(fmt.Errorf("write: %w", err))
	}
	return res
}

func (c *ipc) readLoop() {
	defer close(c.done)
	for {
		h, payload, err := readFrame(c.nc)
		if err != nil {
			c.shutdown(err)
			return
		}

		c.mu.Lock()
		res := c.pending[h.cookie]
		delete(c.pending, h.cookie)
		c.mu.Unlock()

		if res == nil {
			c.logger.Debug("Dropping unsolicited frame",
				zap.Uint32("object", h.object),
				zap.Uint32("cookie", h.cookie))
			continue
		}

		value, err := decodeValue(payload)
		switch {
		case err != nil:
			res.fail(err)
		case h.command == cmdError:
			res.fail(asServerError(value))
		default:
			res.complete(value)
		}
	}
}

func asServerError(v any) error {
	if se, ok := v.(*ServerError); ok {
		return se
	}
	if s, ok := v.(string); ok {
		return &ServerError{Message: s}
	}
	return &ServerError{Message: fmt.Sprintf("%v", v)}
}

// shutdown fails every outstanding call with err
func (c *ipc) shutdown(err error) {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		err = errClosed
	}

	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	pending := c.pending
	c.pending = make(map[uint32]*Result)
	c.mu.Unlock()

	for _, res := range pending {
		res.fail(err)
	}
}

// Close closes the socket and waits for the reader to exit
func (c *ipc) Close() error {
	err := c.nc.Close()
	<-c.done
	return err
}
