package entity

import (
	"fmt"

	"github.com/nerrad567/hostlink/internal/infrastructure/config"
)

// PerformanceField describes one field of the system performance document.
type PerformanceField struct {
	Name        string
	Unit        string
	DeviceClass string
}

// PerformanceFields lists the system performance sensors. The slug of each
// name is also its JSON field in the shared state document.
var PerformanceFields = []PerformanceField{
	{Name: "CPU Load", Unit: "%"},
	{Name: "CPU Frequency", Unit: "GHz", DeviceClass: "frequency"},
	{Name: "Memory Total", Unit: "GB", DeviceClass: "data_size"},
	{Name: "Memory Free", Unit: "GB", DeviceClass: "data_size"},
	{Name: "Memory Free Percentage", Unit: "%"},
	{Name: "Disk Total", Unit: "GB", DeviceClass: "data_size"},
	{Name: "Disk Free", Unit: "GB", DeviceClass: "data_size"},
	{Name: "Disk Free Percentage", Unit: "%"},
}

// Catalog is the full set of entities exposed by one host.
//
// Buttons[i] corresponds to config.Buttons[i] and Switches[i] to
// config.Switches[i], so callers can attach actions by index.
type Catalog struct {
	// Hostname is the slugified host identity that prefixes every entity
	// ID and agent topic.
	Hostname string
	Topics   Topics

	Buttons  []Entity
	Switches []Entity
	Sensors  []Entity
	Notify   Entity
	Status   Entity
}

// Build derives the entity catalog from configuration.
//
// Returns ErrDuplicateEntity when two entities of the same kind slugify to
// the same id. This is a configuration error.
func Build(cfg *config.Config) (*Catalog, error) {
	host := Slugify(cfg.Device.Hostname)
	c := &Catalog{
		Hostname: host,
		Topics:   Topics{Prefix: cfg.Discovery.Prefix, Hostname: host},
	}

	for _, b := range cfg.Buttons {
		e := New(host, KindButton, b.Name)
		e.Icon = b.Icon
		c.Buttons = append(c.Buttons, e)
	}
	for _, s := range cfg.Switches {
		e := New(host, KindSwitch, s.Name)
		e.Icon = s.Icon
		c.Switches = append(c.Switches, e)
	}

	c.Notify = New(host, KindNotify, SlugNotifications)
	c.Notify.Name = "Notifications"

	c.Status = New(host, KindSensor, SlugStatus)
	c.Status.Name = "Status"
	c.Status.ValueTemplate = "{{ value_json.status }}"
	c.Status.Icon = "mdi:power"
	c.Sensors = append(c.Sensors, c.Status)

	if cfg.Telemetry.Enabled {
		for _, f := range PerformanceFields {
			e := New(host, KindSensor, f.Name)
			e.Unit = f.Unit
			e.DeviceClass = f.DeviceClass
			e.StateClass = "measurement"
			e.ValueTemplate = fmt.Sprintf("{{ value_json.%s }}", e.Slug)
			e.SharedState = SlugPerformance
			c.Sensors = append(c.Sensors, e)
		}
	}

	if err := checkUnique(c.All()); err != nil {
		return nil, err
	}
	return c, nil
}

// All returns every entity in discovery order.
func (c *Catalog) All() []Entity {
	all := make([]Entity, 0, len(c.Buttons)+len(c.Switches)+len(c.Sensors)+1)
	all = append(all, c.Buttons...)
	all = append(all, c.Switches...)
	all = append(all, c.Sensors...)
	all = append(all, c.Notify)
	return all
}

func checkUnique(entities []Entity) error {
	seen := make(map[string]string, len(entities))
	for _, e := range entities {
		key := string(e.Kind) + "/" + e.ID
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q both map to %s", ErrDuplicateEntity, prev, e.Name, key)
		}
		seen[key] = e.Name
	}
	return nil
}
