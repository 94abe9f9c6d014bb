// Package dbus connects hostlink to the desktop and to systemd-logind.
//
// It provides:
//   - Client.Call for switches backed by a D-Bus method taking one boolean
//   - Notifier, the desktop notification sender
//   - PowerMonitor, which reports suspend and resume while holding a
//     logind delay inhibitor
//
// Bus connections are opened lazily so the agent starts on hosts without
// a session bus; only the features that need one fail.
package dbus
