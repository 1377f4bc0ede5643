package dispatch

import (
	"bytes"
	"testing"
	"time"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/protocol"
	"github.com/danmuck/powermon/internal/series"
	"github.com/danmuck/powermon/internal/testutil/testlog"
)

type recordingReadout struct {
	samples []domain.SensorSample
}

func (r *recordingReadout) UpdateReadout(s domain.SensorSample) {
	r.samples = append(r.samples, s)
}

type recordingStatus struct {
	wifi []protocol.WifiStatus
	sw   []protocol.SwitchStatus
}

func (r *recordingStatus) UpdateWifi(s protocol.WifiStatus)     { r.wifi = append(r.wifi, s) }
func (r *recordingStatus) UpdateSwitch(s protocol.SwitchStatus) { r.sw = append(r.sw, s) }

func newStore(t *testing.T) *series.Store {
	t.Helper()
	s, err := series.New(series.DefaultConfig())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestDispatchRoutesEachTag(t *testing.T) {
	testlog.Start(t)

	store := newStore(t)
	readout := &recordingReadout{}
	status := &recordingStatus{}
	var term bytes.Buffer
	d := New(Sinks{Store: store, Readout: readout, Status: status, Terminal: &term, Location: time.UTC})

	d.Dispatch(protocol.Wrap(protocol.SensorData{Sample: domain.SensorSample{
		Channels:    map[domain.Channel]domain.Reading{domain.ChannelVIN: {Voltage: 12, Current: 1, Power: 12}},
		TimestampMs: time.Date(2026, 3, 1, 13, 4, 5, 0, time.UTC).UnixMilli(),
	}}))
	d.Dispatch(protocol.Wrap(protocol.WifiStatus{Connected: true, SSID: "lab"}))
	d.Dispatch(protocol.Wrap(protocol.SwitchStatus{USB: true}))
	d.Dispatch(protocol.Wrap(protocol.UARTData{Data: []byte("hello")}))

	snap, err := store.Snapshot(domain.MetricPower)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := snap.Labels[len(snap.Labels)-1]; got != "13:04:05" {
		t.Fatalf("unexpected label %q", got)
	}
	if p := snap.Points[domain.ChannelVIN][len(snap.Labels)-1]; p != series.Value(12) {
		t.Fatalf("unexpected vin point %+v", p)
	}
	if len(readout.samples) != 1 {
		t.Fatalf("readout updates=%d", len(readout.samples))
	}
	if len(status.wifi) != 1 || status.wifi[0].SSID != "lab" {
		t.Fatalf("wifi updates=%+v", status.wifi)
	}
	if len(status.sw) != 1 || !status.sw[0].USB {
		t.Fatalf("switch updates=%+v", status.sw)
	}
	if term.String() != "hello" {
		t.Fatalf("terminal=%q", term.String())
	}
	if d.Dispatched() != 4 || d.Unknown() != 0 {
		t.Fatalf("counters dispatched=%d unknown=%d", d.Dispatched(), d.Unknown())
	}
}

func TestDispatchUnknownIsCountedNoOp(t *testing.T) {
	testlog.Start(t)

	store := newStore(t)
	before, _ := store.Snapshot(domain.MetricPower)
	d := New(Sinks{Store: store})

	d.Dispatch(protocol.Envelope{Tag: protocol.TagUnknown})
	d.Dispatch(protocol.Envelope{Tag: protocol.Tag(42)})
	d.Dispatch(protocol.Envelope{Tag: protocol.TagWifiStatus})

	if d.Unknown() != 3 {
		t.Fatalf("unknown=%d", d.Unknown())
	}
	after, _ := store.Snapshot(domain.MetricPower)
	if after.Labels[len(after.Labels)-1] != before.Labels[len(before.Labels)-1] {
		t.Fatalf("unknown envelope touched the store")
	}
}

func TestDispatchNilSinksAreSkipped(t *testing.T) {
	testlog.Start(t)

	d := New(Sinks{})
	d.Dispatch(protocol.Wrap(protocol.SensorData{}))
	d.Dispatch(protocol.Wrap(protocol.WifiStatus{}))
	d.Dispatch(protocol.Wrap(protocol.UARTData{Data: []byte("x")}))
	if d.Dispatched() != 3 {
		t.Fatalf("dispatched=%d", d.Dispatched())
	}
}

func TestEndToEndFramesToPowerWindow(t *testing.T) {
	testlog.Start(t)

	store := newStore(t)
	d := New(Sinks{Store: store, Location: time.UTC})
	frame, err := protocol.Encode(protocol.Wrap(protocol.SensorData{Sample: domain.SensorSample{
		Channels: map[domain.Channel]domain.Reading{
			domain.ChannelUSB:  {Power: 0.5},
			domain.ChannelMain: {Power: 3},
			domain.ChannelVIN:  {Power: 12},
		},
		TimestampMs: 1_700_000_000_000,
	}}))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 3; i++ {
		env, err := protocol.Decode(frame)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		d.Dispatch(env)
	}

	snap, _ := store.Snapshot(domain.MetricPower)
	want := map[domain.Channel]float64{domain.ChannelUSB: 0.5, domain.ChannelMain: 3, domain.ChannelVIN: 12}
	for ch, v := range want {
		pts := snap.Points[ch]
		for _, p := range pts[len(pts)-3:] {
			if p != series.Value(v) {
				t.Fatalf("channel %s newest=%+v want %v", ch, pts[len(pts)-3:], v)
			}
		}
	}
	if snap.Scale.Max != 20 {
		t.Fatalf("power scale max=%v want 20", snap.Scale.Max)
	}
}
