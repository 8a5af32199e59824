package plain

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/library"
	"github.com/genricoloni/synthia/internal/navigator"
	"github.com/genricoloni/synthia/internal/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type shutdownCount struct{ n atomic.Int32 }

func (s *shutdownCount) Shutdown(...fx.ShutdownOption) error {
	s.n.Add(1)
	return nil
}

type fixture struct {
	f        *Frontend
	nav      *navigator.Navigator
	out      *syncBuffer
	shutdown *shutdownCount
	nexts    chan struct{}
}

func newFixture(t *testing.T, in io.Reader) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("x"), 0o644))

	filter, err := library.NewFilter(config.DefaultPatterns)
	require.NoError(t, err)
	nav, err := navigator.New(library.NewLister(filter, zap.NewNop()), nil, poller.NewStore(), zap.NewNop(),
		navigator.Options{Folder: dir, Mode: library.SortName, Height: 5})
	require.NoError(t, err)

	fix := &fixture{nav: nav, out: &syncBuffer{}, shutdown: &shutdownCount{}, nexts: make(chan struct{}, 8)}
	d, err := dispatch.New(zap.NewNop(),
		map[string][]string{"next": {"n"}},
		map[dispatch.Action]dispatch.Op{dispatch.ActNext: func(context.Context) { fix.nexts <- struct{}{} }})
	require.NoError(t, err)

	cfg := &config.Config{Palette: config.DefaultPalette()}
	fix.f = newFrontend(zap.NewNop(), cfg, nav, poller.NewStore(), poller.NewScreen(), d, fix.shutdown, in, fix.out)
	return fix
}

func TestFrontend_DispatchesKeys(t *testing.T) {
	r, w := io.Pipe()
	fix := newFixture(t, r)
	require.NoError(t, fix.f.Start(t.Context()))
	t.Cleanup(func() {
		_ = w.Close()
		_ = fix.f.Stop(context.Background())
	})

	_, err := w.Write([]byte("zn"))
	require.NoError(t, err)

	select {
	case <-fix.nexts:
	case <-time.After(time.Second):
		t.Fatal("key not dispatched")
	}
	assert.Equal(t, int32(0), fix.shutdown.n.Load())
}

func TestFrontend_EndOfInputShutsDown(t *testing.T) {
	fix := newFixture(t, strings.NewReader("n"))
	require.NoError(t, fix.f.Start(t.Context()))

	require.Eventually(t, func() bool { return fix.shutdown.n.Load() == 1 }, time.Second, time.Millisecond)
	assert.Len(t, fix.nexts, 1)
	require.NoError(t, fix.f.Stop(t.Context()))
}

func TestFrontend_Render(t *testing.T) {
	tests := []struct {
		name       string
		size       func() (int, int, error)
		wantLines  int
		wantWindow int
	}{
		{
			name:       "Success - Terminal size",
			size:       func() (int, int, error) { return 50, 10, nil },
			wantLines:  10,
			wantWindow: 4,
		},
		{
			name:       "Success - Default size without a terminal",
			size:       func() (int, int, error) { return 0, 0, errors.New("not a tty") },
			wantLines:  defaultHeight,
			wantWindow: defaultHeight - 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := newFixture(t, strings.NewReader(""))
			fix.f.size = tt.size

			fix.f.Render()

			out := fix.out.String()
			assert.True(t, strings.HasPrefix(out, home))
			assert.True(t, strings.HasSuffix(out, eraseBelow))
			assert.Len(t, strings.Split(out, "\r\n"), tt.wantLines)
			assert.Contains(t, out, "0001 a.mp3")
			assert.Contains(t, out, "vol: [000%]")
			assert.Equal(t, tt.wantWindow, fix.nav.Height())
		})
	}
}

func TestFrontend_StopWithoutTerminal(t *testing.T) {
	fix := newFixture(t, strings.NewReader(""))

	assert.NoError(t, fix.f.Stop(t.Context()))
	assert.Empty(t, fix.out.String())
}
