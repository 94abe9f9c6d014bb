package entity

import (
	"fmt"
	"strings"
)

// Kind is the Home Assistant component an entity is exposed as.
type Kind string

// Supported entity kinds.
const (
	KindButton Kind = "button"
	KindSwitch Kind = "switch"
	KindSensor Kind = "sensor"
	KindNotify Kind = "notify"
)

// Switch state payloads. Matching is case-sensitive.
const (
	StateOn  = "ON"
	StateOff = "OFF"
)

// PayloadPress is the command payload that fires a button.
const PayloadPress = "PRESS"

// Entity is one hub-visible device exposed by this host.
// Entities are built once from configuration and never change afterwards.
type Entity struct {
	// ID is "<hostname>_<slug>" and is unique per kind.
	ID string

	// Name is the display name.
	Name string

	// Slug is the topic-safe form of Name.
	Slug string

	Kind Kind

	// Sensor metadata.
	Unit          string
	DeviceClass   string
	StateClass    string
	ValueTemplate string

	Icon string

	// SharedState names another entity's slug whose state topic this entity reads.
	// Used by sensors that decode one field from a shared JSON document.
	SharedState string
}

// New builds an entity of the given kind for hostname, which must already
// be a slug.
func New(hostname string, kind Kind, name string) Entity {
	slug := Slugify(name)
	return Entity{
		ID:   hostname + "_" + slug,
		Name: name,
		Slug: slug,
		Kind: kind,
	}
}

// HasCommand reports whether the entity accepts commands from the hub.
func (e Entity) HasCommand() bool {
	switch e.Kind {
	case KindButton, KindSwitch, KindNotify:
		return true
	default:
		return false
	}
}

// HasState reports whether the entity publishes state.
func (e Entity) HasState() bool {
	return e.Kind == KindSwitch || e.Kind == KindSensor
}

// String implements fmt.Stringer.
func (e Entity) String() string {
	return fmt.Sprintf("%s/%s", e.Kind, e.ID)
}

// Slugify lower-cases name, maps spaces to underscores and replaces every
// character outside [a-z0-9_-] with an underscore.
func Slugify(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
