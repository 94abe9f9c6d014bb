// Package router maps exact MQTT topics to handlers.
//
// Route never runs a handler inline: each match starts a goroutine, bounded
// by a pending-action limit. When the limit is reached the message is
// dropped and logged rather than queued, so the session's event loop never
// waits on a slow shell command.
//
// Bindings are rebuilt for every broker connection (Reset, then Bind).
// Local bindings carry internal events such as suspend and resume and are
// excluded from the broker subscription list.
package router
