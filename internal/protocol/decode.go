package protocol

import (
	"fmt"
	"math"

	"github.com/danmuck/powermon/internal/domain"
	"google.golang.org/protobuf/encoding/protowire"
)

// Decode parses one binary StatusMessage frame. An empty frame, or one whose
// only top-level fields are outside the oneof, yields TagUnknown and no error.
// When several oneof members appear, the last one wins.
func Decode(b []byte) (Envelope, error) {
	var (
		lastNum protowire.Number
		lastVal []byte
	)
	err := walk(msgStatus, b, func(num protowire.Number, v value) error {
		lastNum = num
		lastVal = v.bytes
		return nil
	})
	if err != nil {
		return Envelope{}, err
	}

	switch tagByField[lastNum] {
	case TagSensorData:
		sample, err := decodeSensor(lastVal)
		if err != nil {
			return Envelope{}, err
		}
		return Wrap(SensorData{Sample: sample}), nil
	case TagWifiStatus:
		status, err := decodeWifi(lastVal)
		if err != nil {
			return Envelope{}, err
		}
		return Wrap(status), nil
	case TagSwitchStatus:
		status, err := decodeSwitch(lastVal)
		if err != nil {
			return Envelope{}, err
		}
		return Wrap(status), nil
	case TagUARTData:
		data, err := decodeUART(lastVal)
		if err != nil {
			return Envelope{}, err
		}
		return Wrap(data), nil
	default:
		return Envelope{Tag: TagUnknown}, nil
	}
}

type value struct {
	varint  uint64
	fixed32 uint32
	bytes   []byte
}

// walk visits every known field of message in wire order. Unknown fields are
// skipped; a known field with the wrong wire type fails the whole message.
func walk(message string, b []byte, visit func(protowire.Number, value) error) error {
	known := requirements[message]
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return consumeErr(message, 0, n)
		}
		b = b[n:]

		want, ok := known[num]
		if !ok {
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return consumeErr(message, num, m)
			}
			b = b[m:]
			continue
		}
		if typ != want {
			return decodeErr(message, num, fmt.Errorf("%w: got=%d want=%d", ErrWireType, typ, want))
		}

		var v value
		switch typ {
		case protowire.VarintType:
			v.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			v.fixed32, n = protowire.ConsumeFixed32(b)
		case protowire.BytesType:
			v.bytes, n = protowire.ConsumeBytes(b)
		default:
			return decodeErr(message, num, ErrWireType)
		}
		if n < 0 {
			return consumeErr(message, num, n)
		}
		b = b[n:]
		if err := visit(num, v); err != nil {
			return err
		}
	}
	return nil
}

func decodeSensor(b []byte) (domain.SensorSample, error) {
	sample := domain.SensorSample{Channels: make(map[domain.Channel]domain.Reading, 3)}
	err := walk(msgSensor, b, func(num protowire.Number, v value) error {
		switch num {
		case FieldSensorTimestampMs:
			sample.TimestampMs = clampInt64(v.varint)
		case FieldSensorUptimeMs:
			sample.UptimeMs = clampInt64(v.varint)
		default:
			ch := channelByField[num]
			reading, err := decodeChannel(v.bytes)
			if err != nil {
				return err
			}
			sample.Channels[ch] = reading
		}
		return nil
	})
	if err != nil {
		return domain.SensorSample{}, err
	}
	return sample, nil
}

func decodeChannel(b []byte) (domain.Reading, error) {
	var r domain.Reading
	err := walk(msgChannel, b, func(num protowire.Number, v value) error {
		f := float64(math.Float32frombits(v.fixed32))
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decodeErr(msgChannel, num, fmt.Errorf("%w: non-finite value", ErrMalformed))
		}
		switch num {
		case FieldChannelVoltage:
			r.Voltage = f
		case FieldChannelCurrent:
			r.Current = f
		case FieldChannelPower:
			r.Power = f
		}
		return nil
	})
	return r, err
}

func decodeWifi(b []byte) (WifiStatus, error) {
	var s WifiStatus
	err := walk(msgWifi, b, func(num protowire.Number, v value) error {
		switch num {
		case FieldWifiConnected:
			s.Connected = v.varint != 0
		case FieldWifiSSID:
			s.SSID = string(v.bytes)
		case FieldWifiRSSI:
			s.RSSI = int32(v.varint)
		case FieldWifiIPAddress:
			s.IPAddress = string(v.bytes)
		}
		return nil
	})
	return s, err
}

func decodeSwitch(b []byte) (SwitchStatus, error) {
	var s SwitchStatus
	err := walk(msgSwitch, b, func(num protowire.Number, v value) error {
		switch num {
		case FieldSwMain:
			s.Main = v.varint != 0
		case FieldSwUSB:
			s.USB = v.varint != 0
		}
		return nil
	})
	return s, err
}

func decodeUART(b []byte) (UARTData, error) {
	var d UARTData
	err := walk(msgUART, b, func(num protowire.Number, v value) error {
		d.Data = append([]byte(nil), v.bytes...)
		return nil
	})
	return d, err
}

func clampInt64(v uint64) int64 {
	if v > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
