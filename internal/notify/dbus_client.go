package notify

import (
	"github.com/godbus/dbus/v5"
)

const (
	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
)

// DBusClient defines the D-Bus operations the notifier needs.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/synthia/internal/notify DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// Notify shows a desktop notification and returns its id.
	// A non-zero replacesID updates that notification in place.
	Notify(appName string, replacesID uint32, icon, summary, body string, timeoutMs int32) (uint32, error)
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient opens a private connection to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// Notify calls org.freedesktop.Notifications.Notify
func (c *StdDBusClient) Notify(appName string, replacesID uint32, icon, summary, body string, timeoutMs int32) (uint32, error) {
	obj := c.conn.Object(notificationsName, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notificationsIface+".Notify", 0,
		appName, replacesID, icon, summary, body,
		[]string{}, map[string]dbus.Variant{}, timeoutMs)

	var id uint32
	err := call.Store(&id)
	return id, err
}
