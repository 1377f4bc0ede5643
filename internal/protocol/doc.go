// Package protocol owns the device wire contract.
//
// Ownership boundary:
// - status message schema (field numbers and wire types)
// - binary decode/encode of the tagged payload variants
// - liveness control tokens carried as text messages
//
// Binary messages are protobuf-encoded StatusMessage frames whose oneof
// selects exactly one payload variant. Text messages never reach the codec.
package protocol
