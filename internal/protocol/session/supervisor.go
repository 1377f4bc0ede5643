package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/powermon/internal/clock"
	"github.com/danmuck/powermon/internal/observability"
	"github.com/rs/zerolog/log"
)

// Supervisor keeps one Session alive at a time. After a session closes it
// waits the reconnect delay and builds a fresh one, until ctx is done.
type Supervisor struct {
	cfg     Config
	dialer  Dialer
	handler Handler
	clock   clock.Clock

	mu       sync.RWMutex
	current  *Session
	sessions atomic.Int64
}

func NewSupervisor(cfg Config, dialer Dialer, handler Handler, clk clock.Clock) (*Supervisor, error) {
	if dialer == nil {
		return nil, ErrDialerRequired
	}
	if clk == nil {
		clk = clock.Real()
	}
	cfg = cfg.WithDefaults()
	if _, err := Endpoint(cfg.Origin, cfg.Token); err != nil {
		return nil, err
	}
	if err := cfg.ValidateTransport(); err != nil {
		return nil, err
	}
	return &Supervisor{
		cfg:     cfg,
		dialer:  dialer,
		handler: handler,
		clock:   clk,
	}, nil
}

// Run blocks until ctx is done. Sessions never overlap: the next one is
// constructed only after the previous Run has returned and released its
// timers, and only one reconnect wait is ever pending.
func (s *Supervisor) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		sess, err := New(s.cfg, s.dialer, s.handler, s.clock)
		if err != nil {
			return err
		}
		if s.sessions.Add(1) > 1 {
			observability.RecordReconnect()
		}
		s.setCurrent(sess)
		err = sess.Run(ctx)
		s.clearCurrentIf(sess)

		if ctx.Err() != nil {
			log.Info().Msgf("session.Supervisor.Run shutdown sessions=%d", s.sessions.Load())
			return nil
		}
		attempt++
		log.Warn().Msgf("session.Supervisor.Run session lost id=%s attempt=%d err=%v", sess.ID(), attempt, err)
		if err := s.waitReconnect(ctx); err != nil {
			return nil
		}
	}
}

// Sessions reports how many sessions have been constructed.
func (s *Supervisor) Sessions() int64 {
	return s.sessions.Load()
}

// Current returns the active session, if any.
func (s *Supervisor) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Online reports whether the active session is live.
func (s *Supervisor) Online() bool {
	cur := s.Current()
	return cur != nil && cur.State().Live()
}

// Send forwards msg to the active session.
func (s *Supervisor) Send(ctx context.Context, msg Message) error {
	cur := s.Current()
	if cur == nil {
		return fmt.Errorf("%w: no session", ErrNotOpen)
	}
	return cur.Send(ctx, msg)
}

func (s *Supervisor) setCurrent(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sess
}

func (s *Supervisor) clearCurrentIf(target *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == target {
		s.current = nil
	}
}

// waitReconnect holds for the fixed reconnect delay. The delay does not grow
// with attempts.
func (s *Supervisor) waitReconnect(ctx context.Context) error {
	timer := s.clock.NewTimer(s.cfg.ReconnectDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C():
		return nil
	}
}
