package monitor

import (
	"io"
	"sync"
	"time"
)

// Terminal notices, matching the device web console.
const (
	noticeConnected = "\x1b[32mConnected to WebSocket Server\x1b[0m\r\n"
	noticeClosed    = "\r\n\x1b[31mConnection closed. Reconnecting...\x1b[0m\r\n"
)

// IndicatorState is a point-in-time view of the connection indicator.
type IndicatorState struct {
	Online      bool      `json:"online"`
	SessionID   string    `json:"session_id,omitempty"`
	Since       time.Time `json:"since"`
	Connects    int64     `json:"connects"`
	Disconnects int64     `json:"disconnects"`
	LastError   string    `json:"last_error,omitempty"`
}

// StatusIndicator tracks Online/Offline and writes the matching terminal
// notice on every transition.
type StatusIndicator struct {
	mu       sync.RWMutex
	now      func() time.Time
	terminal io.Writer
	state    IndicatorState
}

func NewStatusIndicator(terminal io.Writer, now func() time.Time) *StatusIndicator {
	if now == nil {
		now = time.Now
	}
	return &StatusIndicator{
		now:      now,
		terminal: terminal,
		state:    IndicatorState{Since: now()},
	}
}

func (s *StatusIndicator) SetOnline(sessionID string) {
	s.mu.Lock()
	s.state.Online = true
	s.state.SessionID = sessionID
	s.state.Since = s.now()
	s.state.Connects++
	s.state.LastError = ""
	s.mu.Unlock()
	s.notice(noticeConnected)
}

func (s *StatusIndicator) SetOffline(cause error) {
	s.mu.Lock()
	s.state.Online = false
	s.state.SessionID = ""
	s.state.Since = s.now()
	s.state.Disconnects++
	if cause != nil {
		s.state.LastError = cause.Error()
	}
	s.mu.Unlock()
	s.notice(noticeClosed)
}

func (s *StatusIndicator) State() IndicatorState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *StatusIndicator) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Online
}

func (s *StatusIndicator) notice(text string) {
	if s.terminal == nil {
		return
	}
	_, _ = io.WriteString(s.terminal, text)
}
