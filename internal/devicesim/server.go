package devicesim

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/danmuck/powermon/internal/auth"
	"github.com/danmuck/powermon/internal/clock"
	"github.com/danmuck/powermon/internal/protocol"
	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Server serves simulated device sessions. Each accepted socket gets its own
// stream; the generator is shared so uptime keeps counting across clients.
type Server struct {
	cfg    Config
	clock  clock.Clock
	auth   auth.Validator
	gen    *Generator
	router *gin.Engine

	mu       sync.RWMutex
	main     bool
	usb      bool
	addr     string
	conns    map[int64]context.CancelFunc
	silent   atomic.Bool
	sessions atomic.Int64
	active   atomic.Int64
	pings    atomic.Int64
}

func NewServer(cfg Config, clk clock.Clock) (*Server, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.Real()
	}
	s := &Server{
		cfg:   cfg,
		clock: clk,
		auth:  auth.ForToken(cfg.Token),
		gen:   NewGenerator(cfg.Channels, cfg.Seed, clk.Now()),
		main:  cfg.MainOn,
		usb:   cfg.USBOn,
		conns: make(map[int64]context.CancelFunc),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"sessions": s.sessions.Load(),
			"active":   s.active.Load(),
		})
	})
	r.GET(session.WebSocketPath, func(c *gin.Context) {
		if err := s.auth.Validate(auth.FromRequest(c.Request)); err != nil {
			c.String(http.StatusUnauthorized, err.Error())
			return
		}
		ws, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Warn().Msgf("devicesim.Server.accept failed err=%v", err)
			return
		}
		s.serveConn(c.Request.Context(), ws)
	})
	return r
}

// Handler exposes the simulator's HTTP surface.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("devicesim: listen %s: %w", addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Msgf("devicesim.Server.ListenAndServe listening addr=%s period=%s", ln.Addr(), s.cfg.SamplePeriod)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// SetSilent stops liveness replies, which lets clients observe a dead peer
// without the socket closing.
func (s *Server) SetSilent(silent bool) {
	s.silent.Store(silent)
}

// SetSwitch changes load switch state. Connected clients see it on the next
// status report.
func (s *Server) SetSwitch(main, usb bool) {
	s.mu.Lock()
	s.main, s.usb = main, usb
	s.mu.Unlock()
}

// DropAll tears down every connected socket without a close handshake, as a
// device losing Wi-Fi would.
func (s *Server) DropAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.conns)
	for id, cancel := range s.conns {
		cancel()
		delete(s.conns, id)
	}
	return n
}

func (s *Server) track(id int64, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[id] = cancel
}

func (s *Server) untrack(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
}

func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

func (s *Server) Active() int64 {
	return s.active.Load()
}

func (s *Server) Pings() int64 {
	return s.pings.Load()
}

func (s *Server) switchStatus() protocol.SwitchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return protocol.SwitchStatus{Main: s.main, USB: s.usb}
}

func (s *Server) wifiStatus() protocol.WifiStatus {
	return protocol.WifiStatus{
		Connected: true,
		SSID:      s.cfg.SSID,
		RSSI:      s.cfg.RSSI,
		IPAddress: s.cfg.IPAddress,
	}
}
