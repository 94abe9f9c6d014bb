// Package session owns the broker connection of the agent.
//
// A Manager moves through Disconnected, Connecting, Discovering,
// Subscribing and Serving, and back to Connecting whenever the transport
// fails. On every new connection it republishes discovery, rebinds and
// resubscribes all command topics, and announces availability, status and
// remembered switch states.
//
// While Serving, one goroutine reads inbound messages, routes them, and is
// the only writer to the connection. Actions run on router goroutines and
// send their results back through Publish, tagged with the connection they
// started on; results from an earlier connection are dropped.
//
// Cancelling the context passed to Run moves the session to ShuttingDown:
// routing stops, running actions get up to the drain timeout to publish
// their results, then the status goes Off, availability goes offline and
// the connection is closed.
package session
