package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/protocol"
)

var (
	headlineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	onStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// ConsoleState is the latest device-reported state.
type ConsoleState struct {
	Sample *domain.SensorSample   `json:"sample,omitempty"`
	Uptime string                 `json:"uptime,omitempty"`
	Wifi   *protocol.WifiStatus   `json:"wifi,omitempty"`
	Switch *protocol.SwitchStatus `json:"switch,omitempty"`
	Signal int                    `json:"signal_bars"`
}

// Console keeps the latest readout and status and optionally renders each
// update as one styled line.
type Console struct {
	mu    sync.RWMutex
	out   io.Writer
	state ConsoleState
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) UpdateReadout(sample domain.SensorSample) {
	c.mu.Lock()
	c.state.Sample = &sample
	c.state.Uptime = domain.FormatUptime(sample.UptimeMs)
	c.mu.Unlock()
	c.emit(RenderReadout(sample))
}

func (c *Console) UpdateWifi(status protocol.WifiStatus) {
	c.mu.Lock()
	c.state.Wifi = &status
	c.state.Signal = SignalBars(status)
	c.mu.Unlock()
	c.emit(RenderWifi(status))
}

func (c *Console) UpdateSwitch(status protocol.SwitchStatus) {
	c.mu.Lock()
	c.state.Switch = &status
	c.mu.Unlock()
	c.emit(RenderSwitch(status))
}

func (c *Console) State() ConsoleState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Console) emit(line string) {
	if c.out == nil {
		return
	}
	_, _ = fmt.Fprintln(c.out, line)
}

// RenderReadout shows the VIN channel as the headline, as the device's own
// page does. A sample without VIN renders dashes.
func RenderReadout(sample domain.SensorSample) string {
	values := "--.-- V  --.-- A  --.-- W"
	if vin, ok := sample.Reading(domain.ChannelVIN); ok {
		values = fmt.Sprintf("%.2f V  %.2f A  %.2f W", vin.Voltage, vin.Current, vin.Power)
	}
	return strings.Join([]string{
		headlineStyle.Render(domain.ChannelVIN.String()),
		values,
		labelStyle.Render("up"),
		domain.FormatUptime(sample.UptimeMs),
	}, " ")
}

func RenderWifi(status protocol.WifiStatus) string {
	if !status.Connected {
		return labelStyle.Render("wifi") + " " + offStyle.Render("Disconnected")
	}
	ip := status.IPAddress
	if ip == "" {
		ip = "N/A"
	}
	return fmt.Sprintf("%s %s %s %d dBm (%d/3) ip=%s",
		labelStyle.Render("wifi"),
		onStyle.Render(status.SSID),
		labelStyle.Render("signal"),
		status.RSSI,
		SignalBars(status),
		ip,
	)
}

func RenderSwitch(status protocol.SwitchStatus) string {
	return fmt.Sprintf("%s main=%s usb=%s",
		labelStyle.Render("load"),
		onOff(status.Main),
		onOff(status.USB),
	)
}

// SignalBars buckets RSSI the way the device page picks its Wi-Fi icon.
func SignalBars(status protocol.WifiStatus) int {
	switch {
	case !status.Connected:
		return 0
	case status.RSSI >= -60:
		return 3
	case status.RSSI >= -75:
		return 2
	default:
		return 1
	}
}

func onOff(v bool) string {
	if v {
		return onStyle.Render("on")
	}
	return offStyle.Render("off")
}
