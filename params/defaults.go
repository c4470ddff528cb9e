package params

// Default is one seeded value. It is written only when the key is unset.
type Default struct {
	Key   string
	Value string
}

// Defaults is the static default-value table seeded on every boot.
var Defaults = []Default{
	{"CompletedTrainingVersion", "0"},
	{"DisengageOnAccelerator", "0"},
	{"GsmMetered", "1"},
	{"HasAcceptedTerms", "0"},
	{"LanguageSetting", "main_en"},
	{"OpenpilotEnabledToggle", "1"},
	{"LongitudinalPersonality", "1"},
	{"ShowDebugUI", "0"},
	{"ShowDateTime", "1"},
	{"ShowHudMode", "4"},
	{"ShowSteerRotate", "1"},
	{"ShowPathEnd", "1"},
	{"ShowAccelRpm", "1"},
	{"ShowTpms", "1"},
	{"ShowSteerMode", "2"},
	{"ShowDeviceState", "1"},
	{"ShowConnInfo", "1"},
	{"ShowLaneInfo", "1"},
	{"ShowBlindSpot", "1"},
	{"ShowGapInfo", "1"},
	{"ShowDmInfo", "1"},
	{"ShowRadarInfo", "1"},
	{"MixRadarInfo", "0"},
	{"ShowZOffset", "122"},
	{"ShowPathMode", "9"},
	{"ShowPathColor", "12"},
	{"ShowPathModeCruiseOff", "0"},
	{"ShowPathColorCruiseOff", "19"},
	{"ShowPathModeLane", "12"},
	{"ShowPathColorLane", "13"},
	{"ShowPathWidth", "100"},
	{"ShowPlotMode", "0"},
	{"AutoResumeFromGasSpeed", "0"},
	{"AutoCancelFromGasMode", "0"},
	{"AutoCruiseControl", "0"},
	{"MapboxStyle", "0"},
	{"AutoCurveSpeedCtrlUse", "0"},
	{"AutoCurveSpeedFactor", "100"},
	{"AutoCurveSpeedFactorIn", "50"},
	{"AutoTurnControl", "0"},
	{"AutoTurnControlSpeedLaneChange", "60"},
	{"AutoTurnControlSpeedTurn", "20"},
	{"AutoTurnControlTurnEnd", "6"},
	{"AutoNaviSpeedCtrlEnd", "6"},
	{"AutoNaviSpeedBumpTime", "1"},
	{"AutoNaviSpeedBumpSpeed", "35"},
	{"AutoNaviSpeedSafetyFactor", "105"},
	{"AutoNaviSpeedDecelRate", "80"},
	{"AutoResumeFromBrakeReleaseTrafficSign", "0"},
	{"StartAccelApply", "0"},
	{"StopAccelApply", "50"},
	{"StoppingAccel", "-80"},
	{"AutoSpeedUptoRoadSpeedLimit", "100"},
	{"AChangeCost", "200"},
	{"AChangeCostStart", "40"},
	{"ALeadTau", "150"},
	{"ALeadTauStart", "50"},
	{"TrafficStopMode", "1"},
	{"CruiseButtonMode", "0"},
	{"CruiseSpeedUnit", "10"},
	{"MyDrivingMode", "3"},
	{"MySafeModeFactor", "60"},
	{"LiveSteerRatioApply", "100"},
	{"MyEcoModeFactor", "80"},
	{"CruiseMaxVals1", "160"},
	{"CruiseMaxVals2", "120"},
	{"CruiseMaxVals3", "100"},
	{"CruiseMaxVals4", "80"},
	{"CruiseMaxVals5", "70"},
	{"CruiseMaxVals6", "60"},
	{"CruiseSpeedMin", "10"},
	{"LongitudinalTuningKpV", "100"},
	{"LongitudinalTuningKiV", "0"},
	{"LongitudinalTuningKf", "100"},
	{"LongitudinalActuatorDelayUpperBound", "50"},
	{"LongitudinalActuatorDelayLowerBound", "50"},
	{"EnableRadarTracks", "0"},
	{"SccConnectedBus2", "0"},
	{"SoundVolumeAdjust", "100"},
	{"SoundVolumeAdjustEngage", "10"},
	{"TFollowSpeedAdd", "0"},
	{"TFollowSpeedAddM", "0"},
	{"SoftHoldMode", "0"},
	{"CruiseEcoControl", "4"},
	{"UseLaneLineSpeed", "0"},
	{"AdjustLaneOffset", "0"},
	{"AdjustCurveOffset", "0"},
	{"UseModelPath", "0"},
	{"PathOffset", "0"},
	{"LateralTorqueCustom", "0"},
	{"LateralTorqueAccelFactor", "2500"},
	{"LateralTorqueFriction", "100"},
	{"SteerActuatorDelay", "40"},
	{"CruiseOnDist", "0"},
	{"SteerRatioApply", "0"},
	{"StartRecord", "0"},
	{"StopRecord", "0"},
}
