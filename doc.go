// Package pilotmgr holds the domain types shared by the device manager:
// operating state, heartbeat payloads, shutdown flags and device identity.
//
// Bootstrap, the lifecycle loop and teardown live in pilotmgr/manager.
package pilotmgr
