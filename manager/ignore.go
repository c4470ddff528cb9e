package manager

import (
	"pilotmgr"
	"pilotmgr/config"
	"pilotmgr/process"
)

// Workers the manager treats specially.
const (
	AthenaWorker         = "manage_athenad"
	UploaderWorker       = "uploader"
	HardwareBridgeWorker = "pandad"
	UIWorker             = "ui"
)

// ComputeIgnoreSet returns the workers that must stay stopped for one loop run.
func ComputeIgnoreSet(dongleID string, env config.Env) process.IgnoreSet {
	ignore := process.NewIgnoreSet()
	if !pilotmgr.IsRegistered(dongleID) {
		ignore.Add(AthenaWorker, UploaderWorker)
	}
	if env.NoBoard {
		ignore.Add(HardwareBridgeWorker)
	}
	for _, name := range env.Block {
		if name != "" {
			ignore.Add(name)
		}
	}
	return ignore
}
