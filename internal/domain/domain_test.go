package domain

import (
	"errors"
	"testing"

	"github.com/danmuck/powermon/internal/testutil/testlog"
)

func TestParseChannelAndMetric(t *testing.T) {
	testlog.Start(t)

	ch, err := ParseChannel(" vin ")
	if err != nil || ch != ChannelVIN {
		t.Fatalf("parse channel: ch=%q err=%v", ch, err)
	}
	if _, err := ParseChannel("aux"); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected ErrUnknownChannel, got %v", err)
	}
	m, err := ParseMetric("Power")
	if err != nil || m != MetricPower {
		t.Fatalf("parse metric: m=%q err=%v", m, err)
	}
	if _, err := ParseMetric("energy"); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestSensorSampleValuesSkipsMissingChannels(t *testing.T) {
	testlog.Start(t)

	s := SensorSample{
		Channels: map[Channel]Reading{
			ChannelUSB: {Voltage: 5.1, Current: 0.1, Power: 0.51},
			ChannelVIN: {Voltage: 12, Current: 1, Power: 12},
		},
	}
	got := s.Values(MetricPower)
	if len(got) != 2 {
		t.Fatalf("unexpected values: %+v", got)
	}
	if _, ok := got[ChannelMain]; ok {
		t.Fatalf("missing channel must not be projected: %+v", got)
	}
	if got[ChannelVIN] != 12 {
		t.Fatalf("unexpected vin power: %v", got[ChannelVIN])
	}
}

func TestFormatUptime(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		ms   int64
		want string
	}{
		{ms: 0, want: "00:00:00"},
		{ms: 59_999, want: "00:00:59"},
		{ms: 3_723_000, want: "01:02:03"},
		{ms: (2*86400 + 2*3600 + 30*60 + 15) * 1000, want: "2days 02:30:15"},
		{ms: -5, want: "00:00:00"},
	}
	for _, tc := range cases {
		if got := FormatUptime(tc.ms); got != tc.want {
			t.Fatalf("FormatUptime(%d)=%q want %q", tc.ms, got, tc.want)
		}
	}
}
