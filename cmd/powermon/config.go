package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/monitor"
)

type fileConfig struct {
	Name             string               `toml:"name"`
	Origin           string               `toml:"origin"`
	Token            string               `toml:"token"`
	ListenAddr       string               `toml:"listen_addr"`
	CorsOrigins      []string             `toml:"cors_origins"`
	Window           int                  `toml:"window"`
	Heartbeat        string               `toml:"heartbeat_interval"`
	HeartbeatMS      int64                `toml:"heartbeat_interval_ms"`
	LivenessTimeout  string               `toml:"liveness_timeout"`
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

func loadServiceConfig(path string) (monitor.ServiceConfig, error) {
	cfg := monitor.DefaultServiceConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return monitor.ServiceConfig{}, fmt.Errorf("load powermon config: %w", err)
	}

	if meta.IsDefined("name") {
		if name := strings.TrimSpace(raw.Name); name != "" {
			cfg.Name = name
		}
	}
	if meta.IsDefined("origin") {
		cfg.Session.Origin = strings.TrimSpace(raw.Origin)
	}
	if meta.IsDefined("token") {
		cfg.Session.Token = raw.Token
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("window") {
		cfg.Series.Capacity = raw.Window
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"heartbeat_interval", raw.Heartbeat, &cfg.Session.HeartbeatInterval},
		{"liveness_timeout", raw.LivenessTimeout, &cfg.Session.LivenessTimeout},
		{"reconnect_delay", raw.ReconnectDelay, &cfg.Session.ReconnectDelay},
		{"dial_timeout", raw.DialTimeout, &cfg.Session.DialTimeout},
		{"status_interval", raw.StatusInterval, &cfg.StatusInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return monitor.ServiceConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("heartbeat_interval_ms") {
		cfg.Session.HeartbeatInterval = time.Duration(raw.HeartbeatMS) * time.Millisecond
	}
	if meta.IsDefined("reconnect_delay_ms") {
		cfg.Session.ReconnectDelay = time.Duration(raw.ReconnectDelayMS) * time.Millisecond
	}

	if meta.IsDefined("forward_input") {
		cfg.ForwardInput = raw.ForwardInput
	}
	if meta.IsDefined("console_readout") {
		cfg.ConsoleReadout = raw.ConsoleReadout
	}

	if meta.IsDefined("tls_ca_file") {
		cfg.Session.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}
	if meta.IsDefined("tls_server_name") {
		cfg.Session.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}
	if meta.IsDefined("tls_insecure_skip_verify") {
		cfg.Session.TLS.InsecureSkipVerify = raw.TLSInsecure
	}

	for key, steps := range raw.Steps {
		metric, err := domain.ParseMetric(key)
		if err != nil {
			return monitor.ServiceConfig{}, fmt.Errorf("parse steps.%s: %w", key, err)
		}
		cfg.Series.Steps[metric] = append([]float64(nil), steps...)
	}

	return cfg, nil
}
