package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/danmuck/powermon/internal/clock"
	"github.com/danmuck/powermon/internal/dispatch"
	"github.com/danmuck/powermon/internal/protocol"
	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/danmuck/powermon/internal/series"
	"github.com/danmuck/powermon/internal/transport/wsconn"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Deps are the process-level collaborators. Zero values pick real
// implementations or disable the feature.
type Deps struct {
	Dialer   session.Dialer
	Clock    clock.Clock
	Terminal io.Writer
	Console  io.Writer
	Input    io.Reader
}

// Service owns one device pipeline: supervisor, dispatcher, store and the
// displays fed by them.
type Service struct {
	cfg  ServiceConfig
	deps Deps

	store      *series.Store
	console    *Console
	indicator  *StatusIndicator
	dispatcher *dispatch.Dispatcher
	supervisor *session.Supervisor

	router     *gin.Engine
	routesOnce sync.Once
	started    time.Time

	mu       sync.RWMutex
	httpAddr string
}

// Monitor service constructor using defaults for everything but origin.
func NewService(origin string) (*Service, error) {
	cfg := DefaultServiceConfig()
	cfg.Session.Origin = origin
	return NewServiceWithConfig(cfg, Deps{})
}

// Monitor service constructor using explicit config and collaborators.
func NewServiceWithConfig(cfg ServiceConfig, deps Deps) (*Service, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Dialer == nil {
		dialer, err := wsconn.NewDialer(cfg.Session.TLS)
		if err != nil {
			return nil, err
		}
		deps.Dialer = dialer
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}

	store, err := series.New(cfg.Series)
	if err != nil {
		return nil, err
	}
	var consoleOut io.Writer
	if cfg.ConsoleReadout {
		consoleOut = deps.Console
	}

	s := &Service{
		cfg:       cfg,
		deps:      deps,
		store:     store,
		console:   NewConsole(consoleOut),
		indicator: NewStatusIndicator(deps.Terminal, deps.Clock.Now),
		router:    newRouter(cfg.Name, cfg.CorsOrigins),
		started:   deps.Clock.Now(),
	}
	s.dispatcher = dispatch.New(dispatch.Sinks{
		Store:    store,
		Readout:  s.console,
		Status:   s.console,
		Terminal: deps.Terminal,
	})

	handler := session.Handler{
		OnOpen:        s.onOpen,
		OnClose:       s.onClose,
		OnEnvelope:    s.onEnvelope,
		OnDecodeError: s.onDecodeError,
	}
	sup, err := session.NewSupervisor(cfg.Session, deps.Dialer, handler, deps.Clock)
	if err != nil {
		return nil, err
	}
	s.supervisor = sup
	return s, nil
}

// Monitor runtime entrypoint that blocks until process signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs the pipeline until ctx ends or a component fails.
func (s *Service) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	log.Info().Msgf(
		"monitor.Service.Serve start name=%q origin=%q listen=%q window=%d",
		s.cfg.Name,
		s.cfg.Session.Origin,
		s.cfg.ListenAddr,
		s.store.Capacity(),
	)

	var wg sync.WaitGroup
	supErr := make(chan error, 1)
	httpErr := make(chan error, 1)
	inputErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		supErr <- s.supervisor.Run(ctx)
	}()
	if strings.TrimSpace(s.cfg.ListenAddr) != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			httpErr <- s.serveHTTP(ctx, s.cfg.ListenAddr)
		}()
	}
	if s.cfg.ForwardInput && s.deps.Input != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inputErr <- s.forwardInput(ctx, s.deps.Input)
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	var ticks <-chan time.Time
	if s.cfg.StatusInterval > 0 {
		ticker := s.deps.Clock.NewTicker(s.cfg.StatusInterval)
		defer ticker.Stop()
		ticks = ticker.C()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("monitor.Service.Serve shutdown name=%q", s.cfg.Name)
			return nil
		case err := <-supErr:
			return err
		case err := <-httpErr:
			if err != nil {
				return err
			}
		case err := <-inputErr:
			if err != nil {
				log.Warn().Msgf("monitor.Service.Serve input stopped err=%v", err)
			}
		case <-ticks:
			state := s.indicator.State()
			log.Info().Msgf(
				"monitor.Service.heartbeat name=%q online=%v sessions=%d dispatched=%d unknown=%d",
				s.cfg.Name,
				state.Online,
				s.supervisor.Sessions(),
				s.dispatcher.Dispatched(),
				s.dispatcher.Unknown(),
			)
		}
	}
}

func (s *Service) serveHTTP(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("monitor: listen %s: %w", addr, err)
	}
	s.mu.Lock()
	s.httpAddr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Msgf("monitor.Service.serveHTTP listening addr=%s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// HTTPAddr returns the bound API address once the listener is up.
func (s *Service) HTTPAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.httpAddr
}

func (s *Service) Store() *series.Store {
	return s.store
}

func (s *Service) Indicator() *StatusIndicator {
	return s.indicator
}

func (s *Service) Console() *Console {
	return s.console
}

func (s *Service) Dispatcher() *dispatch.Dispatcher {
	return s.dispatcher
}

func (s *Service) Supervisor() *session.Supervisor {
	return s.supervisor
}

func (s *Service) onOpen(sess *session.Session) {
	s.indicator.SetOnline(sess.ID())
}

func (s *Service) onClose(sess *session.Session, cause error) {
	log.Info().Msgf("monitor.Service.onClose id=%s err=%v", sess.ID(), cause)
	s.indicator.SetOffline(cause)
}

func (s *Service) onEnvelope(_ *session.Session, env protocol.Envelope) {
	s.dispatcher.Dispatch(env)
}

func (s *Service) onDecodeError(sess *session.Session, err error) {
	log.Debug().Msgf("monitor.Service.onDecodeError id=%s err=%v", sess.ID(), err)
}
