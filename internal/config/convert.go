package config

import (
	"time"

	"github.com/danmuck/powermon/internal/devicesim"
	"github.com/danmuck/powermon/internal/domain"
)

// SimulatorDevice maps a validated file config onto the simulator runtime.
// An empty channel list keeps the simulator's default profiles.
func SimulatorDevice(cfg SimulatorConfig) devicesim.Config {
	out := devicesim.Config{
		Token:        cfg.Token,
		SamplePeriod: time.Duration(cfg.SamplePeriodMS) * time.Millisecond,
		WifiPeriod:   time.Duration(cfg.WifiPeriodMS) * time.Millisecond,
		SSID:         cfg.SSID,
		RSSI:         cfg.RSSI,
		IPAddress:    cfg.IPAddress,
		MainOn:       cfg.MainOn,
		USBOn:        cfg.USBOn,
		Seed:         cfg.Seed,
	}
	if len(cfg.Channels) > 0 {
		out.Channels = make(map[domain.Channel]devicesim.Profile, len(cfg.Channels))
		for _, entry := range cfg.Channels {
			ch, err := domain.ParseChannel(entry.Name)
			if err != nil {
				continue
			}
			out.Channels[ch] = devicesim.Profile{
				Voltage: entry.Voltage,
				Current: entry.Current,
				Swing:   entry.Swing,
			}
		}
	}
	return out
}
