package domain

import "time"

// Reading is one channel's electrical state at an instant.
type Reading struct {
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
	Power   float64 `json:"power"`
}

// Value returns the reading's component for metric m.
func (r Reading) Value(m Metric) (float64, bool) {
	switch m {
	case MetricVoltage:
		return r.Voltage, true
	case MetricCurrent:
		return r.Current, true
	case MetricPower:
		return r.Power, true
	default:
		return 0, false
	}
}

// SensorSample is one device tick. A channel missing from Channels means the
// device reported nothing for it; consumers must treat that as a gap.
type SensorSample struct {
	Channels    map[Channel]Reading `json:"channels"`
	TimestampMs int64               `json:"timestamp_ms"`
	UptimeMs    int64               `json:"uptime_ms"`
}

// Reading returns the channel's reading and whether it was reported.
func (s SensorSample) Reading(c Channel) (Reading, bool) {
	r, ok := s.Channels[c]
	return r, ok
}

// Values projects the sample onto one metric, keeping only reported channels.
func (s SensorSample) Values(m Metric) map[Channel]float64 {
	out := make(map[Channel]float64, len(s.Channels))
	for ch, r := range s.Channels {
		v, ok := r.Value(m)
		if !ok {
			continue
		}
		out[ch] = v
	}
	return out
}

// Time converts the device timestamp to wall time.
func (s SensorSample) Time() time.Time {
	return time.UnixMilli(s.TimestampMs)
}
