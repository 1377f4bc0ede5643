package monitor

import (
	"errors"
	"strings"
	"time"

	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/danmuck/powermon/internal/series"
)

var ErrOriginRequired = errors.New("monitor: device origin required")

// ServiceConfig configures one monitored device. A negative StatusInterval
// disables the periodic status log. An empty ListenAddr disables the API.
type ServiceConfig struct {
	Name           string
	Session        session.Config
	Series         series.Config
	ListenAddr     string
	CorsOrigins    []string
	StatusInterval time.Duration
	ForwardInput   bool
	ConsoleReadout bool
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:           "powermon",
		Session:        session.DefaultConfig(),
		Series:         series.DefaultConfig(),
		ListenAddr:     "127.0.0.1:9200",
		CorsOrigins:    []string{"http://localhost:3000"},
		StatusInterval: 30 * time.Second,
		ForwardInput:   false,
		ConsoleReadout: true,
	}
}

func (c ServiceConfig) WithDefaults() ServiceConfig {
	def := DefaultServiceConfig()
	if strings.TrimSpace(c.Name) == "" {
		c.Name = def.Name
	}
	c.Session = c.Session.WithDefaults()
	c.Series = c.Series.WithDefaults()
	if c.StatusInterval == 0 {
		c.StatusInterval = def.StatusInterval
	}
	return c
}

func (c ServiceConfig) Validate() error {
	if strings.TrimSpace(c.Session.Origin) == "" {
		return ErrOriginRequired
	}
	if _, err := session.Endpoint(c.Session.Origin, c.Session.Token); err != nil {
		return err
	}
	return c.Series.Validate()
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimRight(strings.TrimSpace(origin), "/")
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
