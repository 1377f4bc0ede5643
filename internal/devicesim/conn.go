package devicesim

import (
	"context"
	"errors"

	"github.com/coder/websocket"
	"github.com/danmuck/powermon/internal/protocol"
	"github.com/rs/zerolog/log"
)

func (s *Server) serveConn(ctx context.Context, ws *websocket.Conn) {
	id := s.sessions.Add(1)
	s.active.Add(1)
	defer s.active.Add(-1)
	defer ws.CloseNow()
	log.Info().Msgf("devicesim.Server.serveConn open conn=%d", id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.track(id, cancel)
	defer s.untrack(id)

	out := make(chan protocol.Payload, 16)
	pongs := make(chan struct{}, 4)
	readErr := make(chan error, 1)
	go func() {
		readErr <- s.readLoop(ctx, ws, out, pongs)
	}()

	samples := s.clock.NewTicker(s.cfg.SamplePeriod)
	defer samples.Stop()
	reports := s.clock.NewTicker(s.cfg.WifiPeriod)
	defer reports.Stop()

	if err := s.writeStatus(ctx, ws); err != nil {
		return
	}
	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case err = <-readErr:
			if err != nil && websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Warn().Msgf("devicesim.Server.serveConn read failed conn=%d err=%v", id, err)
			}
			log.Info().Msgf("devicesim.Server.serveConn closed conn=%d", id)
			return
		case <-pongs:
			err = ws.Write(ctx, websocket.MessageText, []byte(protocol.ControlPong))
		case p := <-out:
			err = s.writePayload(ctx, ws, p)
		case <-samples.C():
			err = s.writePayload(ctx, ws, protocol.SensorData{Sample: s.gen.Next(s.clock.Now())})
		case <-reports.C():
			err = s.writeStatus(ctx, ws)
		}
		if err != nil {
			log.Debug().Msgf("devicesim.Server.serveConn write failed conn=%d err=%v", id, err)
			return
		}
	}
}

// readLoop answers probes and loops every other frame back as UART data, as
// the firmware's serial bridge would with TX wired to RX.
func (s *Server) readLoop(ctx context.Context, ws *websocket.Conn, out chan<- protocol.Payload, pongs chan<- struct{}) error {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			return err
		}
		if typ == websocket.MessageText && string(data) == protocol.ControlPing {
			s.pings.Add(1)
			if s.silent.Load() {
				continue
			}
			select {
			case pongs <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		select {
		case out <- protocol.UARTData{Data: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) writeStatus(ctx context.Context, ws *websocket.Conn) error {
	if err := s.writePayload(ctx, ws, s.wifiStatus()); err != nil {
		return err
	}
	return s.writePayload(ctx, ws, s.switchStatus())
}

func (s *Server) writePayload(ctx context.Context, ws *websocket.Conn, p protocol.Payload) error {
	frame, err := protocol.Encode(protocol.Wrap(p))
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageBinary, frame)
}
