package pilotmgr

// Bus topics consumed and produced by the manager.
const (
	TopicDeviceState  = "deviceState"
	TopicCarParams    = "carParams"
	TopicManagerState = "managerState"
)

// OperatingState is the vehicle's on-road/off-road dichotomy. It is derived
// fresh from every deviceState sample and never stored.
type OperatingState uint8

const (
	OffRoad OperatingState = iota
	OnRoad
)

func (s OperatingState) String() string {
	switch s {
	case OffRoad:
		return "offroad"
	case OnRoad:
		return "onroad"
	default:
		return "unknown"
	}
}

// OperatingStateFromStarted maps the deviceState started bit to an OperatingState.
func OperatingStateFromStarted(started bool) OperatingState {
	if started {
		return OnRoad
	}
	return OffRoad
}

// DeviceState is the subset of the deviceState sample the manager reads.
type DeviceState struct {
	Started bool `cbor:"started"`
}

// CarParams is opaque to the manager; it is forwarded to the supervisor so
// per-worker run conditions can inspect it.
type CarParams []byte

// UnregisteredDongleID is returned by registration when the device has no
// server-issued identity. It disables telemetry upload workers.
const UnregisteredDongleID = "UnregisteredDevice"

// IsRegistered reports whether id is a real, issued device identity.
func IsRegistered(id string) bool {
	return id != "" && id != UnregisteredDongleID
}
