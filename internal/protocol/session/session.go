package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/danmuck/powermon/internal/clock"
	"github.com/danmuck/powermon/internal/observability"
	"github.com/danmuck/powermon/internal/protocol"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handler receives session callbacks. All callbacks run on the session loop
// goroutine, one at a time and in arrival order. Nil fields are skipped.
type Handler struct {
	OnOpen        func(*Session)
	OnClose       func(*Session, error)
	OnEnvelope    func(*Session, protocol.Envelope)
	OnDecodeError func(*Session, error)
}

// Session is one connection to the device and its liveness timers.
type Session struct {
	id      string
	cfg     Config
	dialer  Dialer
	clock   clock.Clock
	handler Handler

	mu    sync.RWMutex
	state State
	conn  Conn

	writeMu   sync.Mutex
	started   atomic.Bool
	closeOnce sync.Once
	closeReq  chan struct{}
	done      chan struct{}
	events    chan event
}

type eventKind uint8

const (
	eventMessage eventKind = iota + 1
	eventReadError
	eventLivenessExpired
)

type event struct {
	kind eventKind
	msg  Message
	err  error
	gen  uint64
}

// runState is owned by the loop goroutine.
type runState struct {
	conn       Conn
	ticker     clock.Ticker
	liveness   clock.Timer
	gen        uint64
	expired    bool
	cancelRead context.CancelFunc
	loopDone   chan struct{}
	readers    sync.WaitGroup
}

func New(cfg Config, dialer Dialer, handler Handler, clk clock.Clock) (*Session, error) {
	if dialer == nil {
		return nil, ErrDialerRequired
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Session{
		id:       uuid.NewString(),
		cfg:      cfg.WithDefaults(),
		dialer:   dialer,
		clock:    clk,
		handler:  handler,
		state:    StateConnecting,
		closeReq: make(chan struct{}),
		done:     make(chan struct{}),
		events:   make(chan event, 16),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close asks the loop to take the close path. Safe to call repeatedly and
// from any goroutine, including before Run.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closeReq)
	})
}

// Send writes an owner message while the session is live.
func (s *Session) Send(ctx context.Context, msg Message) error {
	s.mu.RLock()
	conn, state := s.conn, s.state
	s.mu.RUnlock()
	if conn == nil || !state.Live() {
		return fmt.Errorf("%w: state=%s", ErrNotOpen, state)
	}
	return s.write(ctx, conn, msg)
}

// Run dials, serves the connection until it closes and returns the close
// cause. OnClose has been called exactly once when Run returns.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	defer close(s.done)

	endpoint, err := Endpoint(s.cfg.Origin, s.cfg.Token)
	if err != nil {
		return s.finish(nil, err, "invalid_origin")
	}

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	conn, err := s.dialer.Dial(dialCtx, endpoint)
	cancel()
	if err != nil {
		return s.finish(nil, fmt.Errorf("session: dial: %w", err), "dial_error")
	}

	readCtx, cancelRead := context.WithCancel(ctx)
	rs := &runState{
		conn:       conn,
		ticker:     s.clock.NewTicker(s.cfg.HeartbeatInterval),
		cancelRead: cancelRead,
		loopDone:   make(chan struct{}),
	}
	s.setState(StateOpen, conn)
	observability.RecordSessionOpen()
	log.Info().Msgf("session.Session.Run open id=%s origin=%q", s.id, s.cfg.Origin)
	if s.handler.OnOpen != nil {
		s.handler.OnOpen(s)
	}

	rs.readers.Add(1)
	go s.readLoop(readCtx, rs)

	var (
		reason string
		cause  error
	)
	for cause == nil {
		select {
		case <-ctx.Done():
			reason, cause = "shutdown", ctx.Err()
		case <-s.closeReq:
			reason, cause = "owner", ErrClosed
		case <-rs.ticker.C():
			reason, cause = s.onTick(ctx, rs)
		case ev := <-s.events:
			reason, cause = s.onEvent(rs, ev)
		}
	}
	if ctx.Err() != nil && !errors.Is(cause, ErrLivenessTimeout) {
		reason, cause = "shutdown", ctx.Err()
	}
	return s.finish(rs, cause, reason)
}

func (s *Session) onTick(ctx context.Context, rs *runState) (string, error) {
	if s.State() == StateAwaitingLiveness {
		log.Debug().Msgf("session.Session.onTick probe outstanding id=%s", s.id)
		return "", nil
	}
	if err := s.write(ctx, rs.conn, TextMessage(protocol.ControlPing)); err != nil {
		return "write_error", fmt.Errorf("session: probe write: %w", err)
	}
	rs.gen++
	gen := rs.gen
	rs.liveness = s.clock.AfterFunc(s.cfg.LivenessTimeout, func() {
		s.post(rs, event{kind: eventLivenessExpired, gen: gen})
	})
	s.setState(StateAwaitingLiveness, rs.conn)
	return "", nil
}

func (s *Session) onEvent(rs *runState, ev event) (string, error) {
	switch ev.kind {
	case eventLivenessExpired:
		if ev.gen != rs.gen || s.State() != StateAwaitingLiveness {
			return "", nil
		}
		rs.expired = true
		log.Warn().Msgf("session.Session.onEvent id=%s err=%v", s.id, ErrLivenessTimeout)
		rs.cancelRead()
		_ = rs.conn.Close("liveness timeout")
		return "", nil
	case eventReadError:
		if rs.expired {
			return "liveness_timeout", ErrLivenessTimeout
		}
		return "read_error", fmt.Errorf("session: read: %w", ev.err)
	case eventMessage:
		if rs.expired {
			return "", nil
		}
		s.onMessage(rs, ev.msg)
	}
	return "", nil
}

func (s *Session) onMessage(rs *runState, msg Message) {
	switch msg.Kind {
	case MessageText:
		text := string(msg.Data)
		if protocol.IsControl(text) {
			observability.RecordFrame("control")
			if protocol.IsPong(text) && s.State() == StateAwaitingLiveness {
				s.stopLiveness(rs)
				s.setState(StateOpen, rs.conn)
			}
			return
		}
		observability.RecordFrame("text")
		log.Debug().Msgf("session.Session.onMessage skip text id=%s len=%d", s.id, len(msg.Data))
	case MessageBinary:
		observability.RecordFrame("binary")
		env, err := protocol.Decode(msg.Data)
		if err != nil {
			observability.RecordDecodeError()
			log.Warn().Msgf("session.Session.onMessage decode id=%s len=%d err=%v", s.id, len(msg.Data), err)
			if s.handler.OnDecodeError != nil {
				s.handler.OnDecodeError(s, err)
			}
			return
		}
		if s.handler.OnEnvelope != nil {
			s.handler.OnEnvelope(s, env)
		}
	}
}

func (s *Session) readLoop(ctx context.Context, rs *runState) {
	defer rs.readers.Done()
	for {
		msg, err := rs.conn.Read(ctx)
		ev := event{kind: eventMessage, msg: msg}
		if err != nil {
			ev = event{kind: eventReadError, err: err}
		}
		if !s.post(rs, ev) || err != nil {
			return
		}
	}
}

// post hands ev to the loop unless the loop has already exited.
func (s *Session) post(rs *runState, ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-rs.loopDone:
		return false
	}
}

func (s *Session) stopLiveness(rs *runState) {
	if rs.liveness != nil {
		rs.liveness.Stop()
		rs.liveness = nil
	}
}

// finish is the only close path. rs is nil when the dial never succeeded.
func (s *Session) finish(rs *runState, cause error, reason string) error {
	if rs != nil {
		rs.ticker.Stop()
		s.stopLiveness(rs)
		close(rs.loopDone)
		rs.cancelRead()
		_ = rs.conn.Close(reason)
		rs.readers.Wait()
	}
	s.setState(StateClosed, nil)
	observability.RecordSessionClose(reason)

	switch {
	case errors.Is(cause, context.Canceled), errors.Is(cause, ErrClosed):
		log.Info().Msgf("session.Session.finish id=%s reason=%s", s.id, reason)
	default:
		log.Warn().Msgf("session.Session.finish id=%s reason=%s err=%v", s.id, reason, cause)
	}
	if s.handler.OnClose != nil {
		s.handler.OnClose(s, cause)
	}
	return cause
}

func (s *Session) write(ctx context.Context, conn Conn, msg Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	return conn.Write(wctx, msg)
}

func (s *Session) setState(state State, conn Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.conn = conn
}
