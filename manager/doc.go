// Package manager runs the device process fleet: it bootstraps the device
// into a known state, keeps workers converged on the vehicle operating state
// until a shutdown flag is raised, and tears every worker down on the way out.
//
// The collaborators it drives are declared in ports.go; production wiring
// lives in cmd/pilotmgrd and daemon.
package manager
