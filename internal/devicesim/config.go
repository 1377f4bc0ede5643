package devicesim

import (
	"errors"
	"strings"
	"time"

	"github.com/danmuck/powermon/internal/domain"
)

var (
	ErrInvalidPeriod  = errors.New("devicesim: invalid period")
	ErrNoProfile      = errors.New("devicesim: no channel profile")
	ErrInvalidProfile = errors.New("devicesim: invalid channel profile")
)

// Profile is the nominal reading of one channel. Samples oscillate around it
// by Swing (fraction of nominal current).
type Profile struct {
	Voltage float64
	Current float64
	Swing   float64
}

type Config struct {
	Token        string
	SamplePeriod time.Duration
	WifiPeriod   time.Duration
	SSID         string
	RSSI         int32
	IPAddress    string
	MainOn       bool
	USBOn        bool
	Seed         uint64
	Channels     map[domain.Channel]Profile
}

// DefaultConfig mirrors the firmware's 1s sensor cadence and 5s Wi-Fi
// report.
func DefaultConfig() Config {
	return Config{
		SamplePeriod: time.Second,
		WifiPeriod:   5 * time.Second,
		SSID:         "powermon-lab",
		RSSI:         -58,
		IPAddress:    "192.168.4.1",
		MainOn:       true,
		USBOn:        true,
		Seed:         1,
		Channels: map[domain.Channel]Profile{
			domain.ChannelUSB:  {Voltage: 5.05, Current: 0.9, Swing: 0.2},
			domain.ChannelMain: {Voltage: 12.1, Current: 1.4, Swing: 0.3},
			domain.ChannelVIN:  {Voltage: 19.8, Current: 1.3, Swing: 0.25},
		},
	}
}

func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.SamplePeriod == 0 {
		c.SamplePeriod = def.SamplePeriod
	}
	if c.WifiPeriod == 0 {
		c.WifiPeriod = def.WifiPeriod
	}
	if strings.TrimSpace(c.SSID) == "" {
		c.SSID = def.SSID
	}
	if c.RSSI == 0 {
		c.RSSI = def.RSSI
	}
	if c.IPAddress == "" {
		c.IPAddress = def.IPAddress
	}
	if c.Seed == 0 {
		c.Seed = def.Seed
	}
	if len(c.Channels) == 0 {
		c.Channels = def.Channels
	}
	return c
}

func (c Config) Validate() error {
	if c.SamplePeriod <= 0 || c.WifiPeriod <= 0 {
		return ErrInvalidPeriod
	}
	if len(c.Channels) == 0 {
		return ErrNoProfile
	}
	for ch, p := range c.Channels {
		if _, err := domain.ParseChannel(string(ch)); err != nil {
			return err
		}
		if p.Voltage < 0 || p.Current < 0 || p.Swing < 0 || p.Swing > 1 {
			return ErrInvalidProfile
		}
	}
	return nil
}
