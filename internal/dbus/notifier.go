package dbus

import (
	"context"
	"fmt"

	godbus "github.com/godbus/dbus/v5"

	"github.com/nerrad567/hostlink/internal/notify"
)

// Desktop notification service constants.
const (
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsMethod    = "org.freedesktop.Notifications.Notify"
	notificationsAppName   = "hostlink"
	notificationsCategory  = "im.received"
	notificationReplacesID = uint32(0)
)

// Notifier shows notifications through org.freedesktop.Notifications.
// It implements notify.Sender.
type Notifier struct {
	client *Client
}

// NewNotifier creates a notifier on c.
func NewNotifier(c *Client) *Notifier {
	return &Notifier{client: c}
}

// Notify shows n on the desktop. The session bus is tried first, then the
// system bus.
func (n *Notifier) Notify(ctx context.Context, note notify.Notification) error {
	conn, err := n.client.conn(ctx, false)
	if err != nil {
		n.client.logger.Warn("session bus unavailable, trying system bus", "error", err)
		conn, err = n.client.conn(ctx, true)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNotifyFailed, err)
		}
	}

	args := notifyArgs(note)
	var id uint32
	err = conn.Object(notificationsService, notificationsPath).
		CallWithContext(ctx, notificationsMethod, 0, args...).
		Store(&id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotifyFailed, err)
	}

	n.client.logger.Info("desktop notification sent", "id", id, "summary", note.Summary)
	return nil
}

// notifyArgs builds the Notify argument list:
// app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout.
func notifyArgs(note notify.Notification) []interface{} {
	hints := map[string]godbus.Variant{
		"urgency":  godbus.MakeVariant(note.Importance.Urgency()),
		"category": godbus.MakeVariant(notificationsCategory),
	}
	return []interface{}{
		notificationsAppName,
		notificationReplacesID,
		note.Importance.Icon(),
		note.Summary,
		note.Message,
		[]string{},
		hints,
		note.Importance.ExpireTimeout(),
	}
}
