package protocol

import "github.com/danmuck/powermon/internal/domain"

// Tag discriminates the payload carried by an Envelope.
type Tag uint8

const (
	TagUnknown Tag = iota
	TagSensorData
	TagWifiStatus
	TagSwitchStatus
	TagUARTData
)

func (t Tag) String() string {
	switch t {
	case TagSensorData:
		return "sensor_data"
	case TagWifiStatus:
		return "wifi_status"
	case TagSwitchStatus:
		return "sw_status"
	case TagUARTData:
		return "uart_data"
	default:
		return "unknown"
	}
}

// Payload is implemented only by the variant types of this package.
type Payload interface {
	tag() Tag
}

// Envelope is one decoded frame. Payload is nil exactly when Tag is TagUnknown.
type Envelope struct {
	Tag     Tag
	Payload Payload
}

type SensorData struct {
	Sample domain.SensorSample
}

type WifiStatus struct {
	Connected bool   `json:"connected"`
	SSID      string `json:"ssid"`
	RSSI      int32  `json:"rssi"`
	IPAddress string `json:"ip_address"`
}

type SwitchStatus struct {
	Main bool `json:"main"`
	USB  bool `json:"usb"`
}

type UARTData struct {
	Data []byte
}

func (SensorData) tag() Tag   { return TagSensorData }
func (WifiStatus) tag() Tag   { return TagWifiStatus }
func (SwitchStatus) tag() Tag { return TagSwitchStatus }
func (UARTData) tag() Tag     { return TagUARTData }

// Wrap builds an Envelope whose Tag agrees with p.
func Wrap(p Payload) Envelope {
	if p == nil {
		return Envelope{Tag: TagUnknown}
	}
	return Envelope{Tag: p.tag(), Payload: p}
}

// Valid reports whether Tag and Payload agree.
func (e Envelope) Valid() bool {
	if e.Payload == nil {
		return e.Tag == TagUnknown
	}
	return e.Payload.tag() == e.Tag
}

func (e Envelope) Sensor() (domain.SensorSample, bool) {
	p, ok := e.Payload.(SensorData)
	return p.Sample, ok && e.Tag == TagSensorData
}

func (e Envelope) Wifi() (WifiStatus, bool) {
	p, ok := e.Payload.(WifiStatus)
	return p, ok && e.Tag == TagWifiStatus
}

func (e Envelope) Switch() (SwitchStatus, bool) {
	p, ok := e.Payload.(SwitchStatus)
	return p, ok && e.Tag == TagSwitchStatus
}

func (e Envelope) UART() (UARTData, bool) {
	p, ok := e.Payload.(UARTData)
	return p, ok && e.Tag == TagUARTData
}
