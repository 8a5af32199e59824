package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/genricoloni/synthia/internal/app/mocks"
	"github.com/genricoloni/synthia/internal/config"
	"github.com/genricoloni/synthia/internal/dispatch"
	"github.com/genricoloni/synthia/internal/library"
	"github.com/genricoloni/synthia/internal/navigator"
	navmocks "github.com/genricoloni/synthia/internal/navigator/mocks"
	"github.com/genricoloni/synthia/internal/poller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type counter struct{ ticks, redraws int }

func (c *counter) Tick(context.Context) { c.ticks++ }
func (c *counter) Redraw()              { c.redraws++ }

type followLog []string

func (f *followLog) Follow(dir string) error {
	*f = append(*f, dir)
	return nil
}

type shutdownFlag bool

func (s *shutdownFlag) Shutdown(...fx.ShutdownOption) error {
	*s = true
	return nil
}

type fixture struct {
	ctrl     *Controller
	player   *mocks.MockPlayer
	queue    *navmocks.MockQueue
	nav      *navigator.Navigator
	counts   *counter
	follows  *followLog
	shutdown *shutdownFlag
	dir      string
}

// newFixture builds a controller over a folder holding sub/, a.mp3 and b.mp3
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"a.mp3", "b.mp3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	mc := gomock.NewController(t)
	f := &fixture{
		player:   mocks.NewMockPlayer(mc),
		queue:    navmocks.NewMockQueue(mc),
		counts:   &counter{},
		follows:  &followLog{},
		shutdown: new(shutdownFlag),
		dir:      dir,
	}

	filter, err := library.NewFilter([]string{"*.mp3"})
	require.NoError(t, err)
	nav, err := navigator.New(library.NewLister(filter, zap.NewNop()), f.queue, poller.NewStore(), zap.NewNop(),
		navigator.Options{Folder: dir, Mode: library.SortName, Height: 10})
	require.NoError(t, err)
	f.nav = nav

	f.ctrl = NewController(zap.NewNop(), f.player, nav, f.counts, f.counts, f.follows, f.shutdown, Steps{Volume: 5, Seek: 2})
	return f
}

func TestOps_CommandsRefreshStatus(t *testing.T) {
	tests := []struct {
		name   string
		action dispatch.Action
		expect func(p *mocks.MockPlayerMockRecorder)
	}{
		{"Success - Play/pause", dispatch.ActPlayPause, func(p *mocks.MockPlayerMockRecorder) { p.PlayPause(gomock.Any()) }},
		{"Success - Stop", dispatch.ActStop, func(p *mocks.MockPlayerMockRecorder) { p.Stop(gomock.Any()) }},
		{"Success - Next", dispatch.ActNext, func(p *mocks.MockPlayerMockRecorder) { p.Next(gomock.Any()) }},
		{"Success - Prev", dispatch.ActPrev, func(p *mocks.MockPlayerMockRecorder) { p.Prev(gomock.Any()) }},
		{"Success - Volume up", dispatch.ActVolumeUp, func(p *mocks.MockPlayerMockRecorder) { p.SetRelativeVolume(gomock.Any(), 5) }},
		{"Success - Volume down", dispatch.ActVolumeDown, func(p *mocks.MockPlayerMockRecorder) { p.SetRelativeVolume(gomock.Any(), -5) }},
		{"Success - Seek forward", dispatch.ActSeekForward, func(p *mocks.MockPlayerMockRecorder) { p.Seek(gomock.Any(), 2) }},
		{"Success - Seek back", dispatch.ActSeekBack, func(p *mocks.MockPlayerMockRecorder) { p.Seek(gomock.Any(), -2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.expect(f.player.EXPECT())

			f.ctrl.Ops()[tt.action](t.Context())

			assert.Equal(t, 1, f.counts.ticks)
		})
	}
}

func TestOps_UpdateLibrary(t *testing.T) {
	f := newFixture(t)
	f.player.EXPECT().UpdateLibrary(gomock.Any())

	f.ctrl.Ops()[dispatch.ActUpdateLibrary](t.Context())

	assert.Equal(t, 0, f.counts.ticks)
}

func TestOps_NavigationRedraws(t *testing.T) {
	f := newFixture(t)
	ops := f.ctrl.Ops()

	ops[dispatch.ActScrollDown](t.Context())
	ops[dispatch.ActBottom](t.Context())
	ops[dispatch.ActTop](t.Context())
	ops[dispatch.ActToggleReverse](t.Context())

	assert.Equal(t, 4, f.counts.redraws)
	assert.Equal(t, 0, f.counts.ticks)
	assert.True(t, f.nav.Snapshot().Reversed)
}

func TestOps_ActivateFolderMovesWatch(t *testing.T) {
	f := newFixture(t)
	ops := f.ctrl.Ops()

	ops[dispatch.ActScrollDown](t.Context()) // sub/
	ops[dispatch.ActActivate](t.Context())

	sub := filepath.Join(f.dir, "sub")
	assert.Equal(t, sub, f.nav.Folder())
	assert.Equal(t, []string{sub}, []string(*f.follows))
	assert.Equal(t, 0, f.counts.ticks)
}

func TestOps_ActivateAudioRefreshesStatus(t *testing.T) {
	f := newFixture(t)
	ops := f.ctrl.Ops()

	gomock.InOrder(
		f.queue.EXPECT().ClearQueue(gomock.Any()),
		f.queue.EXPECT().Enqueue(gomock.Any(), filepath.Join(f.dir, "a.mp3")),
		f.queue.EXPECT().Enqueue(gomock.Any(), filepath.Join(f.dir, "b.mp3")),
		f.queue.EXPECT().StartQueue(gomock.Any()),
	)

	ops[dispatch.ActScrollDown](t.Context())
	ops[dispatch.ActScrollDown](t.Context()) // a.mp3
	ops[dispatch.ActActivate](t.Context())

	assert.Equal(t, 1, f.counts.ticks)
	assert.Empty(t, *f.follows)
}

func TestOps_Quit(t *testing.T) {
	f := newFixture(t)

	f.ctrl.Ops()[dispatch.ActQuit](t.Context())

	assert.True(t, bool(*f.shutdown))
}

func TestOps_DefaultBindingsResolve(t *testing.T) {
	f := newFixture(t)
	ops := f.ctrl.Ops()

	for _, a := range dispatch.Actions {
		assert.Contains(t, ops, a)
	}
	_, err := dispatch.New(zap.NewNop(), config.DefaultKeyBinds, ops)
	require.NoError(t, err)
}
