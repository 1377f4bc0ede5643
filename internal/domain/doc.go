// Package domain holds the device-facing value types shared by the codec,
// the series store and the dispatcher.
//
// Ownership boundary:
// - channel and metric identifiers
// - one-instant sensor readings
//
// Nothing here knows about transport or rendering.
package domain
