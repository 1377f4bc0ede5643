package session

import "errors"

var (
	ErrLivenessTimeout = errors.New("session: liveness timeout")
	ErrNotOpen         = errors.New("session: not open")
	ErrClosed          = errors.New("session: closed by owner")
	ErrAlreadyRun      = errors.New("session: already run")
	ErrDialerRequired  = errors.New("session: dialer required")
	ErrInvalidOrigin   = errors.New("session: invalid origin")
)
