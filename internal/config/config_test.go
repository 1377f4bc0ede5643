package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/testutil/testlog"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestTemplatesLoadAndValidate(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()

	monitorPath := filepath.Join(dir, "monitor.toml")
	if err := WriteTemplate(monitorPath, "monitor", false); err != nil {
		t.Fatalf("write monitor template: %v", err)
	}
	mon, err := LoadMonitorConfig(monitorPath)
	if err != nil {
		t.Fatalf("load monitor: %v", err)
	}
	if mon.Window != 30 || len(mon.Steps["current"]) != 5 {
		t.Fatalf("unexpected monitor config: %+v", mon)
	}

	simPath := filepath.Join(dir, "sim.toml")
	if err := WriteTemplate(simPath, "SIM", false); err != nil {
		t.Fatalf("write sim template: %v", err)
	}
	sim, err := LoadSimulatorConfig(simPath)
	if err != nil {
		t.Fatalf("load sim: %v", err)
	}
	dev := SimulatorDevice(sim)
	if dev.SamplePeriod != time.Second || len(dev.Channels) != 3 {
		t.Fatalf("unexpected device config: %+v", dev)
	}
	if dev.Channels[domain.ChannelVIN].Voltage != 19.8 {
		t.Fatalf("VIN profile=%+v", dev.Channels[domain.ChannelVIN])
	}
	if err := dev.WithDefaults().Validate(); err != nil {
		t.Fatalf("device config invalid: %v", err)
	}
}

func TestWriteTemplateRefusesOverwrite(t *testing.T) {
	testlog.Start(t)
	path := writeFile(t, "x = 1\n")
	if err := WriteTemplate(path, "sim", false); err == nil {
		t.Fatalf("expected overwrite refusal")
	}
	if err := WriteTemplate(path, "sim", true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
	if _, err := Template("gateway"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestLoadMonitorConfigDefaultsAndErrors(t *testing.T) {
	testlog.Start(t)
	cfg, err := LoadMonitorConfig(writeFile(t, `origin = "192.168.4.1"`+"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "powermon" || cfg.Window != 30 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	cfg, err = LoadMonitorConfig(writeFile(t, "origin = \"http://d\"\nheartbeat_interval_ms = 8000\nreconnect_delay_ms = 1500\n"))
	if err != nil {
		t.Fatalf("load ms keys: %v", err)
	}
	if cfg.HeartbeatMS != 8000 || cfg.ReconnectDelayMS != 1500 {
		t.Fatalf("ms keys not decoded: %+v", cfg)
	}

	cases := map[string]string{
		"missing origin": `name = "x"`,
		"bad scheme":     `origin = "ftp://device"`,
		"bad duration":   "origin = \"http://d\"\nheartbeat_interval = \"soon\"",
		"unknown metric": "origin = \"http://d\"\n[steps]\nfrequency = [1.0, 2.0]",
		"unsorted steps": "origin = \"http://d\"\n[steps]\npower = [20.0, 5.0]",
		"tls on ws":      "origin = \"http://d\"\ntls_ca_file = \"ca.crt\"",
		"negative ms":    "origin = \"http://d\"\nreconnect_delay_ms = -5",
	}
	for name, body := range cases {
		if _, err := LoadMonitorConfig(writeFile(t, body+"\n")); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadSimulatorConfigErrors(t *testing.T) {
	testlog.Start(t)
	_, err := LoadSimulatorConfig(writeFile(t, "[[channels]]\nname = \"AUX\"\n"))
	if err == nil || !strings.Contains(err.Error(), "channels[0]") {
		t.Fatalf("expected channel error, got %v", err)
	}
	_, err = LoadSimulatorConfig(writeFile(t, "[[channels]]\nname = \"usb\"\n[[channels]]\nname = \"USB\"\n"))
	if err == nil || !strings.Contains(err.Error(), "duplicates") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := LoadSimulatorConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected missing file error")
	}
}
