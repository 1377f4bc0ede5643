package session

type State uint8

const (
	StateConnecting State = iota
	StateOpen
	StateAwaitingLiveness
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateAwaitingLiveness:
		return "awaiting_liveness"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Live reports whether the connection is established and usable for writes.
func (s State) Live() bool {
	return s == StateOpen || s == StateAwaitingLiveness
}
