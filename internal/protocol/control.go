package protocol

// Liveness tokens exchanged as text messages.
const (
	ControlPing = "ping"
	ControlPong = "pong"
)

// IsControl reports whether text is exactly one of the liveness tokens.
func IsControl(text string) bool {
	return text == ControlPing || text == ControlPong
}

// IsPong reports whether text answers a liveness probe.
func IsPong(text string) bool {
	return text == ControlPong
}
