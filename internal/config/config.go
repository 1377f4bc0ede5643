package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/protocol/session"
	"github.com/danmuck/powermon/internal/series"
	"github.com/pelletier/go-toml/v2"
)

// MonitorConfig is the on-disk shape of a powermon client config.
type MonitorConfig struct {
	Name             string               `toml:"name"`
	Origin           string               `toml:"origin"`
	Token            string               `toml:"token"`
	ListenAddr       string               `toml:"listen_addr"`
	CorsOrigins      []string             `toml:"cors_origins"`
	Window           int                  `toml:"window"`
	Heartbeat        string               `toml:"heartbeat_interval"`
	HeartbeatMS      int64                `toml:"heartbeat_interval_ms"`
	Liveness         string               `toml:"liveness_timeout"`
	ReconnectDelay   string               `toml:"reconnect_delay"`
	ReconnectDelayMS int64                `toml:"reconnect_delay_ms"`
	DialTimeout      string               `toml:"dial_timeout"`
	StatusInterval   string               `toml:"status_interval"`
	ForwardInput     bool                 `toml:"forward_input"`
	ConsoleReadout   bool                 `toml:"console_readout"`
	TLSCAFile        string               `toml:"tls_ca_file"`
	TLSServerName    string               `toml:"tls_server_name"`
	TLSInsecure      bool                 `toml:"tls_insecure_skip_verify"`
	Steps            map[string][]float64 `toml:"steps"`
}

// SimulatorConfig is the on-disk shape of a powermon-sim config.
type SimulatorConfig struct {
	Addr           string           `toml:"addr"`
	Token          string           `toml:"token"`
	SamplePeriodMS int64            `toml:"sample_period_ms"`
	WifiPeriodMS   int64            `toml:"wifi_period_ms"`
	SSID           string           `toml:"ssid"`
	RSSI           int32            `toml:"rssi"`
	IPAddress      string           `toml:"ip_address"`
	MainOn         bool             `toml:"main_on"`
	USBOn          bool             `toml:"usb_on"`
	Seed           uint64           `toml:"seed"`
	Channels       []ChannelProfile `toml:"channels"`
}

type ChannelProfile struct {
	Name    string  `toml:"name"`
	Voltage float64 `toml:"voltage"`
	Current float64 `toml:"current"`
	Swing   float64 `toml:"swing"`
}

func LoadMonitorConfig(path string) (MonitorConfig, error) {
	var cfg MonitorConfig
	if err := loadToml(path, &cfg); err != nil {
		return MonitorConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = "powermon"
	}
	if cfg.Window == 0 {
		cfg.Window = series.DefaultCapacity
	}
	if err := ValidateMonitorConfig(cfg); err != nil {
		return MonitorConfig{}, err
	}
	return cfg, nil
}

func LoadSimulatorConfig(path string) (SimulatorConfig, error) {
	var cfg SimulatorConfig
	if err := loadToml(path, &cfg); err != nil {
		return SimulatorConfig{}, err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8081"
	}
	if cfg.SamplePeriodMS == 0 {
		cfg.SamplePeriodMS = 1000
	}
	if cfg.WifiPeriodMS == 0 {
		cfg.WifiPeriodMS = 5000
	}
	if err := ValidateSimulatorConfig(cfg); err != nil {
		return SimulatorConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateMonitorConfig(cfg MonitorConfig) error {
	if strings.TrimSpace(cfg.Origin) == "" {
		return fmt.Errorf("monitor config missing origin")
	}
	if _, err := session.Endpoint(cfg.Origin, cfg.Token); err != nil {
		return fmt.Errorf("monitor config origin invalid: %w", err)
	}
	transport := session.Config{
		Origin: cfg.Origin,
		TLS: session.TLSConfig{
			CAFile:             cfg.TLSCAFile,
			ServerName:         cfg.TLSServerName,
			InsecureSkipVerify: cfg.TLSInsecure,
		},
	}
	if err := transport.ValidateTransport(); err != nil {
		return fmt.Errorf("monitor config tls invalid: %w", err)
	}
	if cfg.Window < 0 {
		return fmt.Errorf("monitor config window must be positive")
	}
	if cfg.HeartbeatMS < 0 || cfg.ReconnectDelayMS < 0 {
		return fmt.Errorf("monitor config millisecond durations must not be negative")
	}
	durations := []struct {
		key string
		raw string
	}{
		{"heartbeat_interval", cfg.Heartbeat},
		{"liveness_timeout", cfg.Liveness},
		{"reconnect_delay", cfg.ReconnectDelay},
		{"dial_timeout", cfg.DialTimeout},
		{"status_interval", cfg.StatusInterval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		if _, err := time.ParseDuration(strings.TrimSpace(d.raw)); err != nil {
			return fmt.Errorf("%s invalid: %w", d.key, err)
		}
	}
	for key, steps := range cfg.Steps {
		if _, err := domain.ParseMetric(key); err != nil {
			return fmt.Errorf("steps.%s: %w", key, err)
		}
		if err := series.ValidateSteps(steps); err != nil {
			return fmt.Errorf("steps.%s: %w", key, err)
		}
	}
	return nil
}

func ValidateSimulatorConfig(cfg SimulatorConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("sim config missing addr")
	}
	if cfg.SamplePeriodMS <= 0 || cfg.WifiPeriodMS <= 0 {
		return fmt.Errorf("sim config periods must be positive")
	}
	seen := make(map[domain.Channel]bool, len(cfg.Channels))
	for i, entry := range cfg.Channels {
		if err := ValidateChannelProfile(entry); err != nil {
			return fmt.Errorf("channels[%d] invalid: %w", i, err)
		}
		ch, _ := domain.ParseChannel(entry.Name)
		if seen[ch] {
			return fmt.Errorf("channels[%d] duplicates %s", i, ch)
		}
		seen[ch] = true
	}
	return nil
}

func ValidateChannelProfile(cfg ChannelProfile) error {
	if _, err := domain.ParseChannel(cfg.Name); err != nil {
		return err
	}
	if cfg.Voltage < 0 || cfg.Current < 0 {
		return fmt.Errorf("voltage and current must not be negative")
	}
	if cfg.Swing < 0 || cfg.Swing > 1 {
		return fmt.Errorf("swing must be within [0,1]")
	}
	return nil
}
