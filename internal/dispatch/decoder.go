package dispatch

import (
	"context"
	"io"
	"time"
	"unicode/utf8"
)

// ReadAhead is the most bytes read after ESC while decoding a sequence.
// Longer sequences decode to the unrecognized token.
const ReadAhead = 4

// escGap is how long the decoder waits for the next byte of a sequence
const escGap = 30 * time.Millisecond

// Unrecognized is the token for input no key name matches
const Unrecognized = ""

// escapeSequences maps the bytes following ESC to key names
var escapeSequences = map[string]string{
	"[A": "up", "[B": "down", "[C": "right", "[D": "left",
	"OA": "up", "OB": "down", "OC": "right", "OD": "left",
	"[H": "home", "[F": "end", "OH": "home", "OF": "end",
	"[1~": "home", "[4~": "end", "[7~": "home", "[8~": "end",
	"[2~": "insert", "[3~": "delete",
	"[5~": "pgup", "[6~": "pgdown",
	"[Z":  "shift+tab",
	"OP":  "f1", "OQ": "f2", "OR": "f3", "OS": "f4",
	"[[A": "f1", "[[B": "f2", "[[C": "f3", "[[D": "f4", "[[E": "f5",
	"[15~": "f5", "[17~": "f6", "[18~": "f7", "[19~": "f8",
	"[20~": "f9", "[21~": "f10", "[23~": "f11", "[24~": "f12",
}

// controlKeys names the C0 control bytes that are not ctrl+letter
var controlKeys = map[byte]string{
	'\t': "tab",
	'\r': "enter",
	0x7f: "backspace",
	0x00: "ctrl+@",
}

// Decoder turns raw terminal bytes into key tokens named like the
// interactive frontend names them ("up", "pgdown", "ctrl+c", "q").
type Decoder struct {
	in  chan byte
	err error // set before in is closed
	gap time.Duration
}

// NewDecoder starts reading r in the background
func NewDecoder(r io.Reader) *Decoder {
	d := &Decoder{
		in:  make(chan byte, 64),
		gap: escGap,
	}
	go d.pump(r)
	return d
}

func (d *Decoder) pump(r io.Reader) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			d.in <- b
		}
		if err != nil {
			d.err = err
			close(d.in)
			return
		}
	}
}

// Next blocks for the next token. The reader's error is returned once
// its buffered bytes are consumed.
func (d *Decoder) Next(ctx context.Context) (string, error) {
	b, err := d.read(ctx)
	if err != nil {
		return Unrecognized, err
	}

	switch {
	case b == 0x1b:
		return d.escape(ctx), nil
	case b == ' ':
		return " ", nil
	case b < 0x20 || b == 0x7f:
		if name, ok := controlKeys[b]; ok {
			return name, nil
		}
		if b <= 0x1a {
			return "ctrl+" + string(rune('a'+b-1)), nil
		}
		return "ctrl+" + string(rune('@'+b)), nil
	case b < utf8.RuneSelf:
		return string(rune(b)), nil
	}
	return d.multibyte(ctx, b), nil
}

func (d *Decoder) read(ctx context.Context) (byte, error) {
	select {
	case b, ok := <-d.in:
		if !ok {
			return 0, d.err
		}
		return b, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// readSoon returns the next byte if one arrives within the gap
func (d *Decoder) readSoon(ctx context.Context) (byte, bool) {
	timer := time.NewTimer(d.gap)
	defer timer.Stop()
	select {
	case b, ok := <-d.in:
		return b, ok
	case <-timer.C:
		return 0, false
	case <-ctx.Done():
		return 0, false
	}
}

// escape decodes what follows ESC. A lone ESC is "esc"; the read stops at
// the first complete sequence or after ReadAhead bytes.
func (d *Decoder) escape(ctx context.Context) string {
	seq := make([]byte, 0, ReadAhead)
	for len(seq) < ReadAhead {
		b, ok := d.readSoon(ctx)
		if !ok {
			break
		}
		seq = append(seq, b)
		if name, ok := escapeSequences[string(seq)]; ok {
			return name
		}
	}
	if len(seq) == 0 {
		return "esc"
	}
	return Unrecognized
}

// multibyte completes a UTF-8 character started by lead
func (d *Decoder) multibyte(ctx context.Context, lead byte) string {
	buf := []byte{lead}
	for !utf8.FullRune(buf) && len(buf) < utf8.UTFMax {
		b, ok := d.readSoon(ctx)
		if !ok {
			break
		}
		buf = append(buf, b)
	}
	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return Unrecognized
	}
	return string(r)
}
