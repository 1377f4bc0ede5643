package devicesim

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/danmuck/powermon/internal/domain"
)

// Generator produces a deterministic sample stream for a seed.
type Generator struct {
	mu       sync.Mutex
	profiles map[domain.Channel]Profile
	rng      *rand.Rand
	booted   time.Time
	tick     int
}

func NewGenerator(profiles map[domain.Channel]Profile, seed uint64, booted time.Time) *Generator {
	copied := make(map[domain.Channel]Profile, len(profiles))
	for ch, p := range profiles {
		copied[ch] = p
	}
	return &Generator{
		profiles: copied,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		booted:   booted,
	}
}

// Next returns the sample for now. Values are rounded to the sensor's
// millivolt and milliamp resolution.
func (g *Generator) Next(now time.Time) domain.SensorSample {
	g.mu.Lock()
	defer g.mu.Unlock()

	phase := float64(g.tick) / 8
	g.tick++
	sample := domain.SensorSample{
		Channels:    make(map[domain.Channel]domain.Reading, len(g.profiles)),
		TimestampMs: now.UnixMilli(),
		UptimeMs:    now.Sub(g.booted).Milliseconds(),
	}
	for _, ch := range domain.Channels() {
		p, ok := g.profiles[ch]
		if !ok {
			continue
		}
		noise := (g.rng.Float64() - 0.5) * 0.1
		current := p.Current * (1 + p.Swing*math.Sin(phase) + noise*p.Swing)
		if current < 0 {
			current = 0
		}
		voltage := p.Voltage * (1 + (g.rng.Float64()-0.5)*0.004)
		voltage = math.Round(voltage*1000) / 1000
		current = math.Round(current*1000) / 1000
		sample.Channels[ch] = domain.Reading{
			Voltage: voltage,
			Current: current,
			Power:   math.Round(voltage*current*1000) / 1000,
		}
	}
	return sample
}
