// Package session owns the device connection lifecycle.
//
// Ownership boundary:
// - endpoint derivation and credential attachment
// - heartbeat probe and liveness timeout per connection
// - the single close path and its owner callback
// - fixed-delay reconnection via Supervisor
//
// One Session is one connection attempt. Sessions are never reused after
// they reach StateClosed; Supervisor constructs a fresh one instead.
package session
