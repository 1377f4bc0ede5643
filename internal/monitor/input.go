package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/rs/zerolog/log"
)

var ErrEmptyInput = errors.New("monitor: empty input")

// SendInput forwards terminal input to the device as one text frame. The
// device writes every received frame to its UART.
func (s *Service) SendInput(ctx context.Context, data string) error {
	if data == "" {
		return ErrEmptyInput
	}
	if err := s.supervisor.Send(ctx, session.TextMessage(data)); err != nil {
		return fmt.Errorf("monitor: send input: %w", err)
	}
	return nil
}

// forwardInput copies r line by line to the device until r is exhausted or
// ctx ends. Lines typed while offline are dropped.
func (s *Service) forwardInput(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = nil
				}
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				log.Warn().Msgf("monitor.Service.forwardInput read failed err=%v", err)
			}
			return err
		case line := <-lines:
			if err := s.SendInput(ctx, line); err != nil {
				log.Warn().Msgf("monitor.Service.forwardInput dropped bytes=%d err=%v", len(line), err)
			}
		}
	}
}
