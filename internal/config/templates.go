package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "monitor":
		return monitorTemplate, nil
	case "sim":
		return simTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const monitorTemplate = `name = "powermon"
origin = "http://192.168.4.1"
token = ""
listen_addr = "127.0.0.1:9200"
cors_origins = ["http://localhost:3000"]
window = 30
heartbeat_interval = "10s"
liveness_timeout = "5s"
reconnect_delay = "2s"
dial_timeout = "5s"
status_interval = "30s"
forward_input = true
console_readout = true
# wss only: pin the device's certificate authority.
# tls_ca_file = "device-ca.crt"
# tls_server_name = "powermon.local"

[steps]
power = [5.0, 20.0, 50.0, 160.0]
voltage = [5.0, 12.0, 20.0, 30.0]
current = [0.5, 1.0, 2.0, 5.0, 8.0]
`

const simTemplate = `addr = ":8081"
token = ""
sample_period_ms = 1000
wifi_period_ms = 5000
ssid = "powermon-lab"
rssi = -58
ip_address = "192.168.4.1"
main_on = true
usb_on = true
seed = 1

[[channels]]
name = "USB"
voltage = 5.05
current = 0.9
swing = 0.2

[[channels]]
name = "MAIN"
voltage = 12.1
current = 1.4
swing = 0.3

[[channels]]
name = "VIN"
voltage = 19.8
current = 1.3
swing = 0.25
`
