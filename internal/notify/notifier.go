package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"go.uber.org/zap"
)

const (
	appName = "synthia"
	icon    = "audio-x-generic"

	// debounceDuration is the quiet period after a track change before notifying
	debounceDuration = 500 * time.Millisecond
	expireMs         = 5000
)

// Dialer opens the D-Bus connection on first use
type Dialer func() (DBusClient, error)

// Notifier shows a desktop notification when the playing track changes.
// It observes poller ticks; rapid skipping produces one notification for
// the track that was settled on.
type Notifier struct {
	logger   *zap.Logger
	dial     Dialer
	debounce time.Duration

	mu      sync.Mutex
	conn    DBusClient
	lastID  uint32
	pending *domain.Status
	timer   *time.Timer
	stopped bool
}

// NewNotifier creates a notifier connecting through dial
func NewNotifier(logger *zap.Logger, dial Dialer) *Notifier {
	return &Notifier{
		logger:   logger.Named("notify"),
		dial:     dial,
		debounce: debounceDuration,
	}
}

// StdDialer connects to the session bus
func StdDialer() (DBusClient, error) {
	return NewStdDBusClient()
}

// StatusChanged schedules a notification when a new track starts playing
func (n *Notifier) StatusChanged(prev, cur domain.Status) {
	if cur.State != domain.StatePlaying {
		return
	}
	if prev.State != domain.StateStopped && prev.File == cur.File {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped {
		return
	}

	n.logger.Debug("Track change, debouncing...", zap.String("file", cur.File))
	n.pending = &cur
	if n.timer == nil {
		n.timer = time.AfterFunc(n.debounce, n.fire)
	} else {
		n.timer.Reset(n.debounce)
	}
}

func (n *Notifier) fire() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stopped || n.pending == nil {
		return
	}
	st := *n.pending
	n.pending = nil

	if err := n.send(st); err != nil {
		n.logger.Warn("Failed to show notification", zap.Error(err))
	}
}

// send shows st, replacing the previous notification. Callers hold mu.
func (n *Notifier) send(st domain.Status) error {
	if n.conn == nil {
		conn, err := n.dial()
		if err != nil {
			return fmt.Errorf("session bus connection failed: %w", err)
		}
		n.conn = conn
	}

	summary, body := describe(st)
	id, err := n.conn.Notify(appName, n.lastID, icon, summary, body, expireMs)
	if err != nil {
		// the bus may have gone away; reconnect next time
		_ = n.conn.Close()
		n.conn = nil
		return err
	}
	n.lastID = id

	n.logger.Info("Notification shown",
		zap.String("summary", summary),
		zap.Uint32("id", id))
	return nil
}

// describe builds the notification text for st
func describe(st domain.Status) (summary, body string) {
	summary = st.Title
	if summary == "" {
		summary = strings.TrimSuffix(filepath.Base(st.File), filepath.Ext(st.File))
	}

	var parts []string
	if st.Artist != "" {
		parts = append(parts, st.Artist)
	}
	if st.Album != "" {
		parts = append(parts, st.Album)
	}
	return summary, strings.Join(parts, "\n")
}

// Stop cancels a pending notification and closes the bus connection
func (n *Notifier) Stop(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopped = true
	if n.timer != nil {
		n.timer.Stop()
	}
	if n.conn == nil {
		return nil
	}
	err := n.conn.Close()
	n.conn = nil
	return err
}
