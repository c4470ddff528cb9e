package pilotmgr

// ProcessState is the liveness summary of one managed worker, as reported
// in the manager heartbeat.
type ProcessState struct {
	Name            string `cbor:"name"`
	Running         bool   `cbor:"running"`
	ShouldBeRunning bool   `cbor:"shouldBeRunning"`
	Pid             int    `cbor:"pid,omitempty"`
	ExitCode        *int   `cbor:"exitCode,omitempty"`
}

// ManagerState is the heartbeat payload published on TopicManagerState.
type ManagerState struct {
	Processes []ProcessState `cbor:"processes"`
}

// Alive returns the number of workers that currently have a live process.
func (s ManagerState) Alive() int {
	n := 0
	for _, p := range s.Processes {
		if p.Running {
			n++
		}
	}
	return n
}

// Process looks up a worker's state by name.
func (s ManagerState) Process(name string) (ProcessState, bool) {
	for _, p := range s.Processes {
		if p.Name == name {
			return p, true
		}
	}
	return ProcessState{}, false
}
