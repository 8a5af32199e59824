package dispatch

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	noop := func(context.Context) {}

	tests := []struct {
		name     string
		keyBinds map[string][]string
		ops      map[Action]Op
		wantErr  string
	}{
		{
			name:     "Success - Bound actions have ops",
			keyBinds: map[string][]string{"stop": {"s"}, "quit": {"q", "esc"}},
			ops:      map[Action]Op{ActStop: noop, ActQuit: noop, ActNext: noop},
		},
		{
			name:     "Error - Unknown action",
			keyBinds: map[string][]string{"shuffle": {"z"}},
			ops:      map[Action]Op{},
			wantErr:  `unknown action "shuffle"`,
		},
		{
			name:     "Error - Missing operation",
			keyBinds: map[string][]string{"stop": {"s"}},
			ops:      map[Action]Op{},
			wantErr:  `no operation for action "stop"`,
		},
		{
			name:     "Error - Key bound twice",
			keyBinds: map[string][]string{"stop": {"s"}, "next": {"s"}},
			ops:      map[Action]Op{ActStop: noop, ActNext: noop},
			wantErr:  `key "s" bound to both`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(zap.NewNop(), tt.keyBinds, tt.ops)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, d)
		})
	}
}

func TestDispatch(t *testing.T) {
	var ran []Action
	op := func(a Action) Op {
		return func(context.Context) { ran = append(ran, a) }
	}
	keyBinds := map[string][]string{
		"play_pause":  {" "},
		"scroll_down": {"down", "j"},
		"quit":        {"q", "esc", "ctrl+c"},
	}
	d, err := New(zap.NewNop(), keyBinds, map[Action]Op{
		ActPlayPause:  op(ActPlayPause),
		ActScrollDown: op(ActScrollDown),
		ActQuit:       op(ActQuit),
	})
	require.NoError(t, err)

	for _, token := range []string{" ", "j", "x", Unrecognized, "down", "ctrl+c"} {
		d.Dispatch(t.Context(), token)
	}

	assert.Equal(t, []Action{ActPlayPause, ActScrollDown, ActScrollDown, ActQuit}, ran)
	assert.False(t, d.Dispatch(t.Context(), "F"))

	assert.True(t, d.Dispatch(t.Context(), "esc"))
	assert.Equal(t, ActQuit, ran[len(ran)-1])
	assert.Equal(t, []string{"down", "j"}, d.Keys(ActScrollDown))
}

func collect(t *testing.T, d *Decoder) []string {
	t.Helper()
	var out []string
	for {
		tok, err := d.Next(t.Context())
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, tok)
	}
}

func TestDecoder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"Success - Plain keys", "q m M", []string{"q", " ", "m", " ", "M"}},
		{"Success - Arrows", "\x1b[A\x1b[B\x1b[C\x1b[D", []string{"up", "down", "right", "left"}},
		{"Success - Application mode arrows", "\x1bOA\x1bOB", []string{"up", "down"}},
		{"Success - Paging and home", "\x1b[5~\x1b[6~\x1b[H\x1b[F", []string{"pgup", "pgdown", "home", "end"}},
		{"Success - Four byte sequence", "\x1b[15~", []string{"f5"}},
		{"Success - Control bytes", "\r\x03\t\x7f", []string{"enter", "ctrl+c", "tab", "backspace"}},
		{"Success - Line feed is not enter", "n\n", []string{"n", "ctrl+j"}},
		{"Success - Unicode", "é日", []string{"é", "日"}},
		{"Success - Trailing lone escape", "\x1b", []string{"esc"}},
		{"Error - Longer sequence is truncated", "\x1b[1;5A", []string{Unrecognized, "A"}},
		{"Error - Unknown short sequence", "\x1b[Q", []string{Unrecognized}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(strings.NewReader(tt.input))
			assert.Equal(t, tt.want, collect(t, d))
		})
	}
}

func TestDecoder_EscapeThenKey(t *testing.T) {
	r, w := io.Pipe()
	d := NewDecoder(r)

	go func() {
		w.Write([]byte{0x1b})
		time.Sleep(4 * escGap)
		w.Write([]byte("q"))
		w.Close()
	}()

	assert.Equal(t, []string{"esc", "q"}, collect(t, d))
}

func TestDecoder_HonorsContext(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	d := NewDecoder(r)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
