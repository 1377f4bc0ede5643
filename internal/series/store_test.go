package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/testutil/testlog"
)

func newTestStore(t *testing.T, capacity int) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Capacity = capacity
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

type recordingObserver struct {
	mu      sync.Mutex
	updates []Update
	scales  []Scale
}

func (r *recordingObserver) SeriesUpdated(up Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, up)
}

func (r *recordingObserver) ScaleChanged(_ domain.Metric, sc Scale) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scales = append(r.scales, sc)
}

func TestNewValidatesConfig(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultConfig()
	cfg.Capacity = 0
	if _, err := New(cfg); !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Channels = nil
	if _, err := New(cfg); !errors.Is(err, ErrNoChannels) {
		t.Fatalf("expected ErrNoChannels, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Steps[domain.MetricPower] = []float64{5, 5, 10}
	if _, err := New(cfg); !errors.Is(err, ErrInvalidSteps) {
		t.Fatalf("expected ErrInvalidSteps, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Steps[domain.MetricPower] = nil
	if _, err := New(cfg); !errors.Is(err, ErrInvalidSteps) {
		t.Fatalf("expected ErrInvalidSteps for empty steps, got %v", err)
	}
}

func TestInitialWindowIsAllGaps(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 30)
	snap, err := s.Snapshot(domain.MetricPower)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Labels) != 30 {
		t.Fatalf("labels len=%d", len(snap.Labels))
	}
	for ch, pts := range snap.Points {
		if len(pts) != 30 {
			t.Fatalf("channel %s len=%d", ch, len(pts))
		}
		for _, p := range pts {
			if p.Valid {
				t.Fatalf("expected gap in fresh window")
			}
		}
	}
	if snap.Scale.Max != 5 || snap.Scale.StepSize != 1 {
		t.Fatalf("unexpected initial scale: %+v", snap.Scale)
	}
}

func TestWindowLengthInvariant(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 4)
	for i := 0; i < 11; i++ {
		_, err := s.Insert(domain.MetricPower, map[domain.Channel]float64{domain.ChannelUSB: float64(i)}, fmt.Sprintf("t%d", i))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		snap, _ := s.Snapshot(domain.MetricPower)
		if len(snap.Labels) != 4 {
			t.Fatalf("labels len changed: %d", len(snap.Labels))
		}
		for ch, pts := range snap.Points {
			if len(pts) != 4 {
				t.Fatalf("channel %s len changed: %d", ch, len(pts))
			}
		}
	}
	snap, _ := s.Snapshot(domain.MetricPower)
	if strings.Join(snap.Labels, ",") != "t7,t8,t9,t10" {
		t.Fatalf("unexpected labels: %v", snap.Labels)
	}
	usb := snap.Points[domain.ChannelUSB]
	if usb[0] != Value(7) || usb[3] != Value(10) {
		t.Fatalf("unexpected usb window: %+v", usb)
	}
}

func TestMissingChannelBecomesGap(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 3)
	_, err := s.Insert(domain.MetricVoltage, map[domain.Channel]float64{
		domain.ChannelUSB: 5,
		domain.ChannelVIN: 12,
	}, "a")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	main, ok := s.Latest(domain.MetricVoltage, domain.ChannelMain)
	if !ok || main.Valid {
		t.Fatalf("expected newest main slot to be a gap: %+v", main)
	}
	vin, _ := s.Latest(domain.MetricVoltage, domain.ChannelVIN)
	if vin != Value(12) {
		t.Fatalf("unexpected vin slot: %+v", vin)
	}
}

func TestSelectScale(t *testing.T) {
	testlog.Start(t)

	steps := []float64{5, 20, 50, 160}
	cases := []struct {
		peak float64
		want float64
	}{
		{peak: 0, want: 5},
		{peak: 5, want: 5},
		{peak: 5.01, want: 20},
		{peak: 12, want: 20},
		{peak: 160, want: 160},
		{peak: 1000, want: 160},
		{peak: -3, want: 5},
	}
	for _, tc := range cases {
		got := SelectScale(steps, tc.peak)
		if got.Max != tc.want || got.StepSize != tc.want/5 {
			t.Fatalf("SelectScale(%v)=%+v want max=%v", tc.peak, got, tc.want)
		}
	}
}

func TestScaleDesaturatesAfterOutlierScrollsOut(t *testing.T) {
	testlog.Start(t)

	const capacity = 6
	s := newTestStore(t, capacity)
	up, err := s.Insert(domain.MetricPower, map[domain.Channel]float64{domain.ChannelMain: 150}, "spike")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if up.Scale.Max != 160 || !up.ScaleChanged {
		t.Fatalf("expected saturation to 160, got %+v", up)
	}

	for i := 0; i < capacity-1; i++ {
		up, _ = s.Insert(domain.MetricPower, map[domain.Channel]float64{domain.ChannelMain: 4}, "calm")
		if up.Scale.Max != 160 {
			t.Fatalf("outlier still in window at step %d, scale=%+v", i, up.Scale)
		}
	}
	up, _ = s.Insert(domain.MetricPower, map[domain.Channel]float64{domain.ChannelMain: 4}, "calm")
	if up.Scale.Max != 5 || !up.ScaleChanged || up.Previous.Max != 160 {
		t.Fatalf("expected de-saturation to 5, got %+v", up)
	}
}

func TestObserverScaleChangeOnlyOnChange(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 5)
	obs := &recordingObserver{}
	s.Subscribe(obs)

	for _, v := range []float64{1, 2, 3, 12, 13} {
		if _, err := s.Insert(domain.MetricPower, map[domain.Channel]float64{domain.ChannelUSB: v}, ""); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if len(obs.updates) != 5 {
		t.Fatalf("expected 5 updates, got %d", len(obs.updates))
	}
	if len(obs.scales) != 1 || obs.scales[0].Max != 20 {
		t.Fatalf("expected one scale change to 20, got %+v", obs.scales)
	}
}

func TestInsertSampleEndToEndPower(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 30)
	sample := domain.SensorSample{Channels: map[domain.Channel]domain.Reading{
		domain.ChannelUSB:  {Power: 0.5},
		domain.ChannelMain: {Power: 3},
		domain.ChannelVIN:  {Power: 12},
	}}
	for i := 0; i < 3; i++ {
		if _, err := s.InsertSample(sample, fmt.Sprintf("t%d", i)); err != nil {
			t.Fatalf("insert sample: %v", err)
		}
	}
	snap, _ := s.Snapshot(domain.MetricPower)
	want := map[domain.Channel]float64{domain.ChannelUSB: 0.5, domain.ChannelMain: 3, domain.ChannelVIN: 12}
	for ch, v := range want {
		pts := snap.Points[ch]
		for _, p := range pts[len(pts)-3:] {
			if p != Value(v) {
				t.Fatalf("channel %s newest entries=%+v want %v", ch, pts[len(pts)-3:], v)
			}
		}
		if pts[len(pts)-4].Valid {
			t.Fatalf("channel %s should still have leading gaps", ch)
		}
	}
	if snap.Scale.Max != 20 || snap.Scale.StepSize != 4 {
		t.Fatalf("unexpected power scale: %+v", snap.Scale)
	}
	st := snap.Stats[domain.ChannelVIN]
	if st.Count != 3 || st.Avg != 12 || st.Min != 12 || st.Max != 12 {
		t.Fatalf("unexpected vin stats: %+v", st)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 3)
	snap, _ := s.Snapshot(domain.MetricCurrent)
	snap.Labels[2] = "mutated"
	snap.Points[domain.ChannelUSB][2] = Value(99)

	again, _ := s.Snapshot(domain.MetricCurrent)
	if again.Labels[2] != "" || again.Points[domain.ChannelUSB][2].Valid {
		t.Fatalf("snapshot mutation leaked into store")
	}
}

func TestUnknownMetric(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultConfig()
	delete(cfg.Steps, domain.MetricCurrent)
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Insert(domain.MetricCurrent, nil, ""); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
	if _, err := s.Snapshot("energy"); !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestPointJSONGapIsNull(t *testing.T) {
	testlog.Start(t)

	raw, err := json.Marshal([]Point{Gap(), Value(1.5)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "[null,1.5]" {
		t.Fatalf("unexpected json: %s", raw)
	}
	var back []Point
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back[0].Valid || back[1] != Value(1.5) {
		t.Fatalf("unexpected points: %+v", back)
	}
}

func TestNonFiniteValuesBecomeGaps(t *testing.T) {
	testlog.Start(t)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		for i := 0; i < 50; i++ {
			s := newTestStore(t, 30)
			up, err := s.Insert(domain.MetricPower, map[domain.Channel]float64{
				domain.ChannelUSB:  1,
				domain.ChannelMain: bad,
				domain.ChannelVIN:  2,
			}, "a")
			if err != nil {
				t.Fatalf("insert: %v", err)
			}
			if up.Scale.Max != 5 {
				t.Fatalf("value=%v run=%d: expected scale max 5, got %v", bad, i, up.Scale.Max)
			}
			main, _ := s.Latest(domain.MetricPower, domain.ChannelMain)
			if main.Valid {
				t.Fatalf("value=%v: expected gap, got %+v", bad, main)
			}
			snap, err := s.Snapshot(domain.MetricPower)
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if _, err := json.Marshal(snap); err != nil {
				t.Fatalf("value=%v: marshal snapshot: %v", bad, err)
			}
		}
	}
}

func TestPointJSONNonFiniteIsNull(t *testing.T) {
	testlog.Start(t)

	raw, err := json.Marshal([]Point{Value(math.NaN()), Value(math.Inf(1)), Value(math.Inf(-1))})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "[null,null,null]" {
		t.Fatalf("unexpected json: %s", raw)
	}
}

func TestConcurrentSnapshotsDuringInsert(t *testing.T) {
	testlog.Start(t)

	s := newTestStore(t, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, _ = s.Insert(domain.MetricPower, map[domain.Channel]float64{domain.ChannelVIN: float64(i % 40)}, "x")
		}
	}()
	for i := 0; i < 200; i++ {
		snap, err := s.Snapshot(domain.MetricPower)
		if err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		if len(snap.Points[domain.ChannelVIN]) != 8 {
			t.Fatalf("torn window")
		}
	}
	wg.Wait()
}
