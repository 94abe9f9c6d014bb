package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/hostlink/internal/action"
	"github.com/nerrad567/hostlink/internal/entity"
	"github.com/nerrad567/hostlink/internal/notify"
	"github.com/nerrad567/hostlink/internal/router"
)

// bind registers the handlers of one connection. gen is captured so results
// of actions started on this connection are never written to a later one.
func (m *Manager) bind(gen uint64) error {
	for _, e := range m.catalog.Buttons {
		if err := m.router.Bind(m.topics.Command(e), m.buttonHandler(e)); err != nil {
			return fmt.Errorf("binding %s: %w", e, err)
		}
	}
	for _, e := range m.catalog.Switches {
		if err := m.router.Bind(m.topics.Command(e), m.switchHandler(e, gen)); err != nil {
			return fmt.Errorf("binding %s: %w", e, err)
		}
	}
	if err := m.router.Bind(m.topics.Notify(), m.notifyHandler); err != nil {
		return fmt.Errorf("binding notifications: %w", err)
	}
	if m.powerEvents {
		if err := m.router.BindLocal(m.topics.Power(), m.powerHandler(gen)); err != nil {
			return fmt.Errorf("binding power events: %w", err)
		}
	}
	return nil
}

func (m *Manager) buttonHandler(e entity.Entity) router.Handler {
	return func(ctx context.Context, payload []byte) {
		a, err := m.actions.Resolve(e.ID)
		if err != nil {
			m.logger.Error("no action for button", "entity", e.ID, "error", err)
			return
		}
		m.actions.Execute(ctx, a, payload)
	}
}

// switchHandler runs the switch action and publishes the outcome: the new
// state on success, an empty retained payload on failure, nothing for an
// invalid payload.
func (m *Manager) switchHandler(e entity.Entity, gen uint64) router.Handler {
	stateTopic := m.topics.State(e)
	slot := m.switches[e.ID]

	return func(ctx context.Context, payload []byte) {
		a, err := m.actions.Resolve(e.ID)
		if err != nil {
			m.logger.Error("no action for switch", "entity", e.ID, "error", err)
			return
		}

		res := m.actions.Execute(ctx, a, payload)
		if errors.Is(res.Err, action.ErrInvalidPayload) {
			return
		}

		if !res.Succeeded {
			m.Publish(Request{Topic: stateTopic, Payload: []byte{}, QoS: m.qos, Retained: true, Generation: gen})
			return
		}

		// Remember, persist and enqueue under the slot lock so the last
		// publish and the stored state always match the remembered one.
		slot.mu.Lock()
		defer slot.mu.Unlock()
		slot.state = res.NewState
		if m.store != nil {
			if err := m.store.Save(ctx, e.ID, res.NewState); err != nil {
				m.logger.Warn("persisting switch state failed", "entity", e.ID, "error", err)
			}
		}
		m.Publish(Request{Topic: stateTopic, Payload: []byte(res.NewState), QoS: m.qos, Retained: true, Generation: gen})
	}
}

func (m *Manager) notifyHandler(ctx context.Context, payload []byte) {
	n, err := notify.Parse(payload)
	if err != nil {
		m.logger.Warn("dropping notification", "error", err)
		return
	}
	if m.notifier == nil {
		m.logger.Warn("notifications disabled, dropping", "summary", n.Summary)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ActionTimeout)
	defer cancel()

	if err := m.notifier.Notify(ctx, n); err != nil {
		m.logger.Warn("notification not delivered", "summary", n.Summary, "error", err)
	}
}

// powerHandler bridges host sleep and wake into the session. Before sleep
// the status sensor goes Suspended. After wake the session reconnects,
// since the broker has usually dropped the connection in the meantime.
func (m *Manager) powerHandler(gen uint64) router.Handler {
	return func(_ context.Context, payload []byte) {
		switch strings.TrimSpace(string(payload)) {
		case PowerSleep:
			m.Publish(m.statusRequest(StatusSuspended, gen))
		case PowerWake:
			m.Reconnect()
		default:
			m.logger.Warn("unknown power event", "payload", string(payload))
		}
	}
}
