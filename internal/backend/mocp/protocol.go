package mocp

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/genricoloni/synthia/internal/domain"
)

// Command opcodes understood by the MOC server
const (
	cmdPlay       uint32 = 0x00
	cmdStop       uint32 = 0x04
	cmdPause      uint32 = 0x05
	cmdUnpause    uint32 = 0x06
	cmdGetCtime   uint32 = 0x0d
	cmdGetSname   uint32 = 0x0f
	cmdNext       uint32 = 0x10
	cmdSeek       uint32 = 0x12
	cmdGetState   uint32 = 0x13
	cmdGetBitrate uint32 = 0x16
	cmdGetRate    uint32 = 0x17
	cmdGetMixer   uint32 = 0x1a
	cmdSetMixer   uint32 = 0x1b
	cmdPrev       uint32 = 0x20
	cmdQueueAdd   uint32 = 0x3b
	cmdQueueClear uint32 = 0x3e
)

// Server event tokens
const (
	evState byte = 0x01
	evData  byte = 0x06

	endOfList uint32 = 0xffffffff

	// padding after an event token, and the trailer after a queue add reply
	tokenPadding = 3
	queueTrailer = 16
)

// Server playback states
const (
	statePlay  = 1
	stateStop  = 2
	statePause = 3
)

// maxString bounds string replies so a desynchronized stream cannot allocate without limit
const maxString = 1 << 16

// conn is one protocol exchange over a freshly dialed socket
type conn struct {
	nc net.Conn
	r  *bufio.Reader
}

func newConn(nc net.Conn) *conn {
	return &conn{nc: nc, r: bufio.NewReader(nc)}
}

func (c *conn) send(words ...uint32) error {
	buf := make([]byte, 0, 4*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	if _, err := c.nc.Write(buf); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// sendString writes the length frame, then the raw bytes
func (c *conn) sendString(s string) error {
	if err := c.send(uint32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	if _, err := io.WriteString(c.nc, s); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// await scans the stream byte by byte for tok, then drops its padding
func (c *conn) await(tok byte) error {
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return fmt.Errorf("waiting for event 0x%02x: %w", tok, err)
		}
		if b == tok {
			break
		}
	}
	return c.discard(tokenPadding)
}

func (c *conn) discard(n int) error {
	if _, err := c.r.Discard(n); err != nil {
		return fmt.Errorf("discard: %w", err)
	}
	return nil
}

func (c *conn) readWord() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (c *conn) readInt() (int, error) {
	w, err := c.readWord()
	return int(int32(w)), err
}

func (c *conn) readString() (string, error) {
	n, err := c.readInt()
	if err != nil {
		return "", err
	}
	if n < 0 || n > maxString {
		return "", fmt.Errorf("%w: string length %d", domain.ErrProtocol, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return string(buf), nil
}

// queryInt sends a data request and reads the integer answer
func (c *conn) queryInt(cmd uint32) (int, error) {
	if err := c.send(cmd); err != nil {
		return 0, err
	}
	if err := c.await(evData); err != nil {
		return 0, err
	}
	return c.readInt()
}

// queryString sends a data request and reads the string answer
func (c *conn) queryString(cmd uint32) (string, error) {
	if err := c.send(cmd); err != nil {
		return "", err
	}
	if err := c.await(evData); err != nil {
		return "", err
	}
	return c.readString()
}

// drainList consumes the reply up to the end-of-list marker and the trailer after it.
// The reply echoes the path unpadded, so the marker is searched byte by byte.
func (c *conn) drainList() error {
	var window uint32
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return fmt.Errorf("waiting for end of list: %w", err)
		}
		window = window>>8 | uint32(b)<<24
		if window == endOfList {
			break
		}
	}
	return c.discard(queueTrailer)
}
