package series

import (
	"errors"
	"fmt"

	"github.com/danmuck/powermon/internal/domain"
)

const DefaultCapacity = 30

var (
	ErrInvalidCapacity = errors.New("series: capacity must be positive")
	ErrNoChannels      = errors.New("series: channel set is empty")
	ErrInvalidSteps    = errors.New("series: steps must be non-empty and strictly increasing")
	ErrUnknownMetric   = errors.New("series: unknown metric")
)

type Config struct {
	Capacity int
	Channels []domain.Channel
	Steps    map[domain.Metric][]float64
}

func DefaultConfig() Config {
	return Config{
		Capacity: DefaultCapacity,
		Channels: domain.Channels(),
		Steps: map[domain.Metric][]float64{
			domain.MetricPower:   {5, 20, 50, 160},
			domain.MetricVoltage: {5, 12, 20, 30},
			domain.MetricCurrent: {0.5, 1, 2, 5, 8},
		},
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Capacity == 0 {
		c.Capacity = def.Capacity
	}
	if len(c.Channels) == 0 {
		c.Channels = def.Channels
	}
	if len(c.Steps) == 0 {
		c.Steps = def.Steps
	}
	return c
}

func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, c.Capacity)
	}
	if len(c.Channels) == 0 {
		return ErrNoChannels
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("%w: no metrics", ErrInvalidSteps)
	}
	for metric, steps := range c.Steps {
		if err := ValidateSteps(steps); err != nil {
			return fmt.Errorf("%w (metric=%s)", err, metric)
		}
	}
	return nil
}

func ValidateSteps(steps []float64) error {
	if len(steps) == 0 {
		return ErrInvalidSteps
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] <= steps[i-1] {
			return fmt.Errorf("%w: steps[%d]=%v <= steps[%d]=%v", ErrInvalidSteps, i, steps[i], i-1, steps[i-1])
		}
	}
	return nil
}
