// Package monitor composes the device pipeline into a runnable service.
//
// Ownership boundary:
// - session supervision and owner callbacks
// - dispatch into the series store and console collaborators
// - online/offline status and terminal notices
// - the HTTP snapshot API and metrics endpoint
// - forwarding local input to the device UART bridge
package monitor
