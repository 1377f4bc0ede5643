package protocol

import (
	"fmt"
	"math"

	"github.com/danmuck/powermon/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

// Encode serializes env as a StatusMessage frame. Zero-valued scalars are
// omitted; reported channels are always written, even when all zero.
func Encode(env Envelope) ([]byte, error) {
	if !env.Valid() {
		return nil, fmt.Errorf("%w: tag=%s", ErrPayloadMissing, env.Tag)
	}

	var (
		field protowire.Number
		body  []byte
	)
	switch p := env.Payload.(type) {
	case SensorData:
		field, body = FieldSensorData, encodeSensor(p.Sample)
	case WifiStatus:
		field, body = FieldWifiStatus, encodeWifi(p)
	case SwitchStatus:
		field, body = FieldSwStatus, encodeSwitch(p)
	case UARTData:
		field, body = FieldUARTData, encodeUART(p)
	default:
		return []byte{}, nil
	}

	out := protowire.AppendTag(nil, field, protowire.BytesType)
	return protowire.AppendBytes(out, body), nil
}

func encodeSensor(s domain.SensorSample) []byte {
	var b []byte
	for _, ch := range domain.Channels() {
		r, ok := s.Channels[ch]
		if !ok {
			continue
		}
		num, _ := channelField(ch)
		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, encodeChannel(r))
	}
	if s.TimestampMs > 0 {
		b = appendVarint(b, FieldSensorTimestampMs, uint64(s.TimestampMs))
	}
	if s.UptimeMs > 0 {
		b = appendVarint(b, FieldSensorUptimeMs, uint64(s.UptimeMs))
	}
	return b
}

func encodeChannel(r domain.Reading) []byte {
	var b []byte
	b = appendFloat(b, FieldChannelVoltage, r.Voltage)
	b = appendFloat(b, FieldChannelCurrent, r.Current)
	b = appendFloat(b, FieldChannelPower, r.Power)
	return b
}

func encodeWifi(s WifiStatus) []byte {
	var b []byte
	if s.Connected {
		b = appendVarint(b, FieldWifiConnected, 1)
	}
	if s.SSID != "" {
		b = protowire.AppendTag(b, FieldWifiSSID, protowire.BytesType)
		b = protowire.AppendString(b, s.SSID)
	}
	if s.RSSI != 0 {
		b = appendVarint(b, FieldWifiRSSI, uint64(int64(s.RSSI)))
	}
	if s.IPAddress != "" {
		b = protowire.AppendTag(b, FieldWifiIPAddress, protowire.BytesType)
		b = protowire.AppendString(b, s.IPAddress)
	}
	return b
}

func encodeSwitch(s SwitchStatus) []byte {
	var b []byte
	if s.Main {
		b = appendVarint(b, FieldSwMain, 1)
	}
	if s.USB {
		b = appendVarint(b, FieldSwUSB, 1)
	}
	return b
}

func encodeUART(d UARTData) []byte {
	if len(d.Data) == 0 {
		return nil
	}
	b := protowire.AppendTag(nil, FieldUARTBytes, protowire.BytesType)
	return protowire.AppendBytes(b, d.Data)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendFloat(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(float32(v)))
}
