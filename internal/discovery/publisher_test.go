package discovery

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nerrad567/hostlink/internal/entity"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeConn struct {
	messages  []published
	failTopic string
	down      bool
}

func (f *fakeConn) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.down {
		return errors.New("not connected")
	}
	if topic == f.failTopic {
		return errors.New("publish rejected")
	}
	f.messages = append(f.messages, published{topic, payload, qos, retained})
	return nil
}

func (f *fakeConn) IsConnected() bool { return !f.down }

func testEntities() (entity.Topics, []entity.Entity) {
	topics := entity.Topics{Prefix: "homeassistant", Hostname: "desk"}

	button := entity.New("desk", entity.KindButton, "Lock Screen")
	sw := entity.New("desk", entity.KindSwitch, "Caffeine")
	cpu := entity.New("desk", entity.KindSensor, "CPU Load")
	cpu.Unit = "%"
	cpu.ValueTemplate = "{{ value_json.cpu_load }}"
	cpu.SharedState = entity.SlugPerformance
	notif := entity.New("desk", entity.KindNotify, entity.SlugNotifications)

	return topics, []entity.Entity{button, sw, cpu, notif}
}

func newTestPublisher(topics entity.Topics) *Publisher {
	return NewPublisher(topics, NewDeviceInfo("desk", "", "1.2.3"), "1.2.3")
}

func TestPublishAll(t *testing.T) {
	topics, entities := testEntities()
	p := newTestPublisher(topics)
	conn := &fakeConn{}

	n, err := p.PublishAll(conn, entities)
	if err != nil {
		t.Fatalf("PublishAll() error = %v", err)
	}
	if n != len(entities) {
		t.Errorf("PublishAll() = %d, want %d", n, len(entities))
	}

	wantTopics := []string{
		"homeassistant/button/desk_lock_screen/config",
		"homeassistant/switch/desk_caffeine/config",
		"homeassistant/sensor/desk_cpu_load/config",
		"homeassistant/notify/desk_notifications/config",
	}
	for i, m := range conn.messages {
		if m.topic != wantTopics[i] {
			t.Errorf("message %d topic = %q, want %q", i, m.topic, wantTopics[i])
		}
		if !m.retained || m.qos != 1 {
			t.Errorf("message %d retained=%v qos=%d, want retained QoS 1", i, m.retained, m.qos)
		}
	}
}

func TestPublishAll_SharedDeviceBlock(t *testing.T) {
	topics, entities := testEntities()
	p := newTestPublisher(topics)
	conn := &fakeConn{}

	if _, err := p.PublishAll(conn, entities); err != nil {
		t.Fatal(err)
	}

	for _, m := range conn.messages {
		var c Config
		if err := json.Unmarshal(m.payload, &c); err != nil {
			t.Fatalf("invalid discovery JSON on %s: %v", m.topic, err)
		}
		if len(c.Device.Identifiers) != 1 || c.Device.Identifiers[0] != "desk" {
			t.Errorf("%s device identifiers = %v, want [desk]", m.topic, c.Device.Identifiers)
		}
		if c.AvailabilityTopic != "hostlink/desk/availability" {
			t.Errorf("%s availability_topic = %q", m.topic, c.AvailabilityTopic)
		}
		if c.Origin.Name != "hostlink" {
			t.Errorf("%s origin name = %q", m.topic, c.Origin.Name)
		}
	}
}

func TestPayload_PerKind(t *testing.T) {
	topics, entities := testEntities()
	p := newTestPublisher(topics)

	decode := func(e entity.Entity) map[string]any {
		t.Helper()
		data, err := p.Payload(e)
		if err != nil {
			t.Fatal(err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		return m
	}

	button := decode(entities[0])
	if button["command_topic"] != "homeassistant/button/desk_lock_screen/set" {
		t.Errorf("button command_topic = %v", button["command_topic"])
	}
	if button["payload_press"] != "PRESS" {
		t.Errorf("button payload_press = %v", button["payload_press"])
	}
	if _, ok := button["state_topic"]; ok {
		t.Error("button must not declare a state_topic")
	}

	sw := decode(entities[1])
	if sw["state_topic"] != "homeassistant/switch/desk_caffeine/state" {
		t.Errorf("switch state_topic = %v", sw["state_topic"])
	}
	if sw["payload_on"] != "ON" || sw["payload_off"] != "OFF" {
		t.Errorf("switch payloads = %v/%v", sw["payload_on"], sw["payload_off"])
	}
	if sw["unique_id"] != "desk_caffeine" {
		t.Errorf("switch unique_id = %v", sw["unique_id"])
	}

	cpu := decode(entities[2])
	if cpu["state_topic"] != "homeassistant/sensor/desk_system_performance/state" {
		t.Errorf("sensor state_topic = %v", cpu["state_topic"])
	}
	if cpu["unit_of_measurement"] != "%" {
		t.Errorf("sensor unit = %v", cpu["unit_of_measurement"])
	}
	if _, ok := cpu["command_topic"]; ok {
		t.Error("sensor must not declare a command_topic")
	}

	notif := decode(entities[3])
	if notif["command_topic"] != topics.Notify() {
		t.Errorf("notify command_topic = %v, want %s", notif["command_topic"], topics.Notify())
	}
}

func TestPublishAll_ContinuesPastEntityFailure(t *testing.T) {
	topics, entities := testEntities()
	p := newTestPublisher(topics)
	conn := &fakeConn{failTopic: "homeassistant/switch/desk_caffeine/config"}

	n, err := p.PublishAll(conn, entities)
	if err == nil {
		t.Fatal("PublishAll() expected error")
	}
	if !strings.Contains(err.Error(), "switch/desk_caffeine") {
		t.Errorf("error %q should name the failing entity", err)
	}
	if n != len(entities)-1 {
		t.Errorf("PublishAll() = %d, want %d", n, len(entities)-1)
	}
}

func TestPublishAll_StopsWhenDisconnected(t *testing.T) {
	topics, entities := testEntities()
	p := newTestPublisher(topics)
	conn := &fakeConn{down: true}

	n, err := p.PublishAll(conn, entities)
	if err == nil {
		t.Fatal("PublishAll() expected error")
	}
	if n != 0 {
		t.Errorf("PublishAll() = %d, want 0", n)
	}
	if strings.Count(err.Error(), "not connected") != 1 {
		t.Errorf("error %q, want a single attempt before aborting", err)
	}
}
