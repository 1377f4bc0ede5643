// Package series holds fixed-capacity sliding windows per (metric, channel)
// and the display scale derived from them.
//
// Ownership boundary:
// - window shift-then-append on every insert
// - peak scan and step-based scale selection
// - snapshot-on-read for rendering and HTTP consumers
//
// The store has no knowledge of transport or rendering.
package series
