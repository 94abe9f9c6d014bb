package discovery

import (
	"github.com/nerrad567/hostlink/internal/entity"
)

// DeviceInfo holds the Home Assistant device registry fields shared by every
// entity of one host, so the hub groups them under a single device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version"`
}

// OriginInfo identifies the software publishing the discovery messages.
type OriginInfo struct {
	Name       string `json:"name"`
	SWVersion  string `json:"sw_version"`
	SupportURL string `json:"support_url,omitempty"`
}

// Config is the JSON body of one discovery message.
type Config struct {
	Name              string     `json:"name"`
	UniqueID          string     `json:"unique_id"`
	ObjectID          string     `json:"object_id"`
	CommandTopic      string     `json:"command_topic,omitempty"`
	StateTopic        string     `json:"state_topic,omitempty"`
	AvailabilityTopic string     `json:"availability_topic"`
	PayloadPress      string     `json:"payload_press,omitempty"`
	PayloadOn         string     `json:"payload_on,omitempty"`
	PayloadOff        string     `json:"payload_off,omitempty"`
	UnitOfMeasurement string     `json:"unit_of_measurement,omitempty"`
	DeviceClass       string     `json:"device_class,omitempty"`
	StateClass        string     `json:"state_class,omitempty"`
	ValueTemplate     string     `json:"value_template,omitempty"`
	Icon              string     `json:"icon,omitempty"`
	Device            DeviceInfo `json:"device"`
	Origin            OriginInfo `json:"origin"`
}

// NewDeviceInfo builds the device block for hostname. The hostname is the
// device identifier, so it is identical across every entity of this process.
func NewDeviceInfo(hostname, name, version string) DeviceInfo {
	if name == "" {
		name = hostname
	}
	return DeviceInfo{
		Identifiers:  []string{hostname},
		Name:         name,
		Manufacturer: "hostlink",
		Model:        "MQTT Agent",
		SWVersion:    version,
	}
}

// buildConfig renders the discovery body for e.
func (p *Publisher) buildConfig(e entity.Entity) Config {
	c := Config{
		Name:              e.Name,
		UniqueID:          e.ID,
		ObjectID:          e.ID,
		AvailabilityTopic: p.topics.Availability(),
		UnitOfMeasurement: e.Unit,
		DeviceClass:       e.DeviceClass,
		StateClass:        e.StateClass,
		ValueTemplate:     e.ValueTemplate,
		Icon:              e.Icon,
		Device:            p.device,
		Origin:            p.origin,
	}

	if e.HasCommand() {
		c.CommandTopic = p.topics.Command(e)
	}
	if e.HasState() {
		c.StateTopic = p.topics.State(e)
	}

	switch e.Kind {
	case entity.KindButton:
		c.PayloadPress = entity.PayloadPress
	case entity.KindSwitch:
		c.PayloadOn = entity.StateOn
		c.PayloadOff = entity.StateOff
	}

	return c
}
