package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler runs the work bound to a topic. It is called on its own goroutine.
type Handler func(ctx context.Context, payload []byte)

// Outcome describes what Route did with a message.
type Outcome int

const (
	// OutcomeDispatched means a handler goroutine was started.
	OutcomeDispatched Outcome = iota

	// OutcomeUnmatched means no binding exists for the topic.
	OutcomeUnmatched

	// OutcomeSaturated means the pending action limit was reached.
	OutcomeSaturated

	// OutcomeClosed means the router no longer accepts work.
	OutcomeClosed
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeDispatched:
		return "dispatched"
	case OutcomeUnmatched:
		return "unmatched"
	case OutcomeSaturated:
		return "saturated"
	case OutcomeClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer receives one sample per routed message.
type Observer interface {
	ObserveRoute(outcome string)
}

type binding struct {
	handler Handler

	// local bindings are routed but never subscribed on the broker.
	local bool
}

// Router maps exact topics to handlers and runs each matched handler
// without blocking the caller.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - At most maxPending handlers run at once; further messages are dropped.
type Router struct {
	mu       sync.RWMutex
	bindings map[string]binding
	closed   bool

	sem chan struct{}
	wg  sync.WaitGroup

	// base is the context handlers run under. It outlives shutdown so that
	// in-flight actions finish on their own timeout.
	base context.Context

	logger   Logger
	observer Observer
}

// New creates a router allowing at most maxPending concurrent handlers.
func New(maxPending int) *Router {
	if maxPending < 1 {
		maxPending = 1
	}
	return &Router{
		bindings: make(map[string]binding),
		sem:      make(chan struct{}, maxPending),
		base:     context.Background(),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// SetObserver sets the routing observer, typically the metrics collector.
func (r *Router) SetObserver(o Observer) {
	r.observer = o
}

// Bind maps topic to h. Bound topics are subscribed on the broker.
func (r *Router) Bind(topic string, h Handler) error {
	return r.bind(topic, binding{handler: h})
}

// BindLocal maps an internal event topic to h. Local topics are routed
// like any other but are not part of Subscriptions.
func (r *Router) BindLocal(topic string, h Handler) error {
	return r.bind(topic, binding{handler: h, local: true})
}

func (r *Router) bind(topic string, b binding) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if b.handler == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrInvalidHandler, topic)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[topic]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBinding, topic)
	}
	r.bindings[topic] = b
	return nil
}

// Reset drops every binding. Called before rebinding on a new connection.
// Handlers already running are unaffected.
func (r *Router) Reset() {
	r.mu.Lock()
	r.bindings = make(map[string]binding)
	r.mu.Unlock()
}

// Subscriptions returns the broker topics to subscribe, sorted.
func (r *Router) Subscriptions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.bindings))
	for topic, b := range r.bindings {
		if !b.local {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// Route dispatches payload to the handler bound to topic.
//
// Matching is exact. The handler runs on a new goroutine; Route never waits
// for it. Unmatched topics are logged and dropped, since the broker may still
// deliver retained messages for topics bound on an earlier connection.
func (r *Router) Route(topic string, payload []byte) Outcome {
	outcome := r.route(topic, payload)
	if r.observer != nil {
		r.observer.ObserveRoute(outcome.String())
	}
	return outcome
}

func (r *Router) route(topic string, payload []byte) Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.logger.Debug("router closed, dropping message", "topic", topic)
		return OutcomeClosed
	}

	b, ok := r.bindings[topic]
	if !ok {
		r.logger.Debug("no binding for topic, dropping message", "topic", topic)
		return OutcomeUnmatched
	}

	select {
	case r.sem <- struct{}{}:
	default:
		r.logger.Warn("pending action limit reached, dropping message",
			"topic", topic,
			"limit", cap(r.sem),
		)
		return OutcomeSaturated
	}

	// Add under the read lock so Close cannot slip in between the closed
	// check and the Add.
	r.wg.Add(1)
	data := append([]byte(nil), payload...)
	go r.run(topic, b.handler, data)

	return OutcomeDispatched
}

// run executes one handler with panic recovery.
func (r *Router) run(topic string, h Handler, payload []byte) {
	defer r.wg.Done()
	defer func() { <-r.sem }()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic recovered",
				"topic", topic,
				"panic", rec,
			)
		}
	}()

	h(r.base, payload)
}

// Pending returns the number of handlers currently running.
func (r *Router) Pending() int {
	return len(r.sem)
}

// Close stops accepting messages. Running handlers continue.
func (r *Router) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Wait blocks until every running handler returns or ctx ends.
//
// Returns:
//   - nil when all handlers finished
//   - ctx.Err() when the wait was cut short; those handlers are abandoned
func (r *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
