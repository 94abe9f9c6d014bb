package dbus

import "errors"

var (
	// ErrBusUnavailable indicates a bus connection could not be opened.
	ErrBusUnavailable = errors.New("dbus: bus unavailable")

	// ErrCallFailed indicates a method call returned an error.
	ErrCallFailed = errors.New("dbus: call failed")

	// ErrNotifyFailed indicates a desktop notification was not shown.
	ErrNotifyFailed = errors.New("dbus: notification failed")

	// ErrInhibitFailed indicates logind refused a sleep inhibitor.
	ErrInhibitFailed = errors.New("dbus: inhibit failed")
)
