package protocol

import (
	"github.com/danmuck/powermon/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

// StatusMessage oneof members.
const (
	FieldSensorData protowire.Number = 1
	FieldWifiStatus protowire.Number = 2
	FieldSwStatus   protowire.Number = 3
	FieldUARTData   protowire.Number = 4
)

// SensorData fields.
const (
	FieldSensorUSB         protowire.Number = 1
	FieldSensorMain        protowire.Number = 2
	FieldSensorVIN         protowire.Number = 3
	FieldSensorTimestampMs protowire.Number = 4
	FieldSensorUptimeMs    protowire.Number = 5
)

// ChannelData fields.
const (
	FieldChannelVoltage protowire.Number = 1
	FieldChannelCurrent protowire.Number = 2
	FieldChannelPower   protowire.Number = 3
)

// WifiStatus fields.
const (
	FieldWifiConnected protowire.Number = 1
	FieldWifiSSID      protowire.Number = 2
	FieldWifiRSSI      protowire.Number = 3
	FieldWifiIPAddress protowire.Number = 4
)

// LoadSwStatus fields.
const (
	FieldSwMain protowire.Number = 1
	FieldSwUSB  protowire.Number = 2
)

// UartData fields.
const (
	FieldUARTBytes protowire.Number = 1
)

const (
	msgStatus  = "StatusMessage"
	msgSensor  = "SensorData"
	msgChannel = "ChannelData"
	msgWifi    = "WifiStatus"
	msgSwitch  = "LoadSwStatus"
	msgUART    = "UartData"
)

// requirements lists the wire type of every known field per message.
// Fields not listed are skipped on decode.
var requirements = map[string]map[protowire.Number]protowire.Type{
	msgStatus: {
		FieldSensorData: protowire.BytesType,
		FieldWifiStatus: protowire.BytesType,
		FieldSwStatus:   protowire.BytesType,
		FieldUARTData:   protowire.BytesType,
	},
	msgSensor: {
		FieldSensorUSB:         protowire.BytesType,
		FieldSensorMain:        protowire.BytesType,
		FieldSensorVIN:         protowire.BytesType,
		FieldSensorTimestampMs: protowire.VarintType,
		FieldSensorUptimeMs:    protowire.VarintType,
	},
	msgChannel: {
		FieldChannelVoltage: protowire.Fixed32Type,
		FieldChannelCurrent: protowire.Fixed32Type,
		FieldChannelPower:   protowire.Fixed32Type,
	},
	msgWifi: {
		FieldWifiConnected: protowire.VarintType,
		FieldWifiSSID:      protowire.BytesType,
		FieldWifiRSSI:      protowire.VarintType,
		FieldWifiIPAddress: protowire.BytesType,
	},
	msgSwitch: {
		FieldSwMain: protowire.VarintType,
		FieldSwUSB:  protowire.VarintType,
	},
	msgUART: {
		FieldUARTBytes: protowire.BytesType,
	},
}

var tagByField = map[protowire.Number]Tag{
	FieldSensorData: TagSensorData,
	FieldWifiStatus: TagWifiStatus,
	FieldSwStatus:   TagSwitchStatus,
	FieldUARTData:   TagUARTData,
}

var channelByField = map[protowire.Number]domain.Channel{
	FieldSensorUSB:  domain.ChannelUSB,
	FieldSensorMain: domain.ChannelMain,
	FieldSensorVIN:  domain.ChannelVIN,
}

func channelField(ch domain.Channel) (protowire.Number, bool) {
	for num, c := range channelByField {
		if c == ch {
			return num, true
		}
	}
	return 0, false
}
