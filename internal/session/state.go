package session

// State is the connection state of the session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateDiscovering
	StateSubscribing
	StateServing
	StateShuttingDown
)

// stateNames is indexed by State.
var stateNames = []string{
	"disconnected",
	"connecting",
	"discovering",
	"subscribing",
	"serving",
	"shutting_down",
}

// String returns the state name used in logs and metrics.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// StateNames returns every state name in order.
func StateNames() []string {
	return append([]string(nil), stateNames...)
}

// Host status values published on the status sensor.
const (
	StatusOn        = "On"
	StatusOff       = "Off"
	StatusSuspended = "Suspended"
)

// Payloads of the local power event topic.
const (
	PowerSleep = "sleep"
	PowerWake  = "wake"
)
