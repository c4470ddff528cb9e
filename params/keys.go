package params

import "strings"

// Category tags a key with the lifecycle moments at which it is cleared.
// A key may carry several categories.
type Category uint8

const (
	Persistent Category = 0

	ClearOnManagerStart Category = 1 << iota
	ClearOnOnroadTransition
	ClearOnOffroadTransition
	DevelopmentOnly
)

func (c Category) String() string {
	if c == Persistent {
		return "persistent"
	}
	var parts []string
	if c&ClearOnManagerStart != 0 {
		parts = append(parts, "clear_on_manager_start")
	}
	if c&ClearOnOnroadTransition != 0 {
		parts = append(parts, "clear_on_onroad_transition")
	}
	if c&ClearOnOffroadTransition != 0 {
		parts = append(parts, "clear_on_offroad_transition")
	}
	if c&DevelopmentOnly != 0 {
		parts = append(parts, "development_only")
	}
	return strings.Join(parts, "|")
}

// Keys read or written by the manager itself.
const (
	DongleID              = "DongleId"
	HardwareSerial        = "HardwareSerial"
	Passive               = "Passive"
	IsOnroad              = "IsOnroad"
	IsOffroad             = "IsOffroad"
	RecordFront           = "RecordFront"
	RecordFrontLock       = "RecordFrontLock"
	LastUpdateTime        = "LastUpdateTime"
	LastBootRecord        = "LastBootRecord"
	LastManagerExitReason = "LastManagerExitReason"
	CarParamsKey          = "CarParams"
	Version               = "Version"
	TermsVersion          = "TermsVersion"
	TrainingVersion       = "TrainingVersion"
	GitCommit             = "GitCommit"
	GitBranch             = "GitBranch"
	GitRemote             = "GitRemote"
	IsTestedBranch        = "IsTestedBranch"
	IsReleaseBranch       = "IsReleaseBranch"
)

// Keys is the table of every key the store accepts.
var Keys = map[string]Category{
	"DongleId":        Persistent,
	"HardwareSerial":  Persistent,
	"Passive":         Persistent,
	"IsOnroad":        Persistent,
	"IsOffroad":       Persistent,
	"RecordFront":     Persistent,
	"RecordFrontLock": Persistent,
	"LastUpdateTime":  Persistent,
	"LastBootRecord":  Persistent,

	"LastManagerExitReason": ClearOnManagerStart,
	"DoUninstall":           ClearOnManagerStart,
	"DoReboot":              ClearOnManagerStart,
	"DoShutdown":            ClearOnManagerStart,
	"PandaHeartbeatLost":    ClearOnManagerStart | ClearOnOffroadTransition,

	"CarParams":      ClearOnManagerStart | ClearOnOnroadTransition,
	"CarVin":         ClearOnManagerStart | ClearOnOnroadTransition,
	"ControlsReady":  ClearOnManagerStart | ClearOnOnroadTransition,
	"CurrentRoute":   ClearOnManagerStart | ClearOnOnroadTransition,
	"NavDestination": ClearOnManagerStart | ClearOnOffroadTransition,
	"DriveSummary":   ClearOnOffroadTransition,

	"JoystickDebugMode":               ClearOnManagerStart | DevelopmentOnly,
	"LongitudinalManeuverMode":        ClearOnManagerStart | DevelopmentOnly,
	"ExperimentalLongitudinalEnabled": DevelopmentOnly,

	"Version":         Persistent,
	"TermsVersion":    Persistent,
	"TrainingVersion": Persistent,
	"GitCommit":       Persistent,
	"GitBranch":       Persistent,
	"GitRemote":       Persistent,
	"IsTestedBranch":  Persistent,
	"IsReleaseBranch": Persistent,
}

func init() {
	for _, d := range Defaults {
		if _, ok := Keys[d.Key]; !ok {
			Keys[d.Key] = Persistent
		}
	}
}
