package series

import (
	"fmt"
	"sync"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/rs/zerolog/log"
)

// Observer is told about every insert and, separately, about scale changes.
// Callbacks run on the inserting goroutine after the store lock is released.
type Observer interface {
	SeriesUpdated(Update)
	ScaleChanged(metric domain.Metric, scale Scale)
}

// Update describes the effect of one Insert.
type Update struct {
	Metric       domain.Metric
	Label        string
	Scale        Scale
	Previous     Scale
	ScaleChanged bool
}

type Snapshot struct {
	Metric domain.Metric              `json:"metric"`
	Labels []string                   `json:"labels"`
	Points map[domain.Channel][]Point `json:"points"`
	Scale  Scale                      `json:"scale"`
	Stats  map[domain.Channel]Stats   `json:"stats"`
}

type window struct {
	steps  []float64
	labels []string
	points map[domain.Channel][]Point
	scale  Scale
}

// Store is safe for one writer and any number of concurrent readers.
type Store struct {
	mu        sync.RWMutex
	capacity  int
	channels  []domain.Channel
	windows   map[domain.Metric]*window
	observers []Observer
}

func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		capacity: cfg.Capacity,
		channels: append([]domain.Channel(nil), cfg.Channels...),
		windows:  make(map[domain.Metric]*window, len(cfg.Steps)),
	}
	for metric, steps := range cfg.Steps {
		w := &window{
			steps:  append([]float64(nil), steps...),
			labels: make([]string, cfg.Capacity),
			points: make(map[domain.Channel][]Point, len(cfg.Channels)),
			scale:  SelectScale(steps, 0),
		}
		for _, ch := range cfg.Channels {
			w.points[ch] = make([]Point, cfg.Capacity)
		}
		s.windows[metric] = w
	}
	return s, nil
}

// Subscribe registers o for all subsequent inserts.
func (s *Store) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, o)
	s.mu.Unlock()
}

func (s *Store) Capacity() int {
	return s.capacity
}

// Metrics lists the configured metrics in display order.
func (s *Store) Metrics() []domain.Metric {
	out := make([]domain.Metric, 0, len(s.windows))
	for _, m := range domain.Metrics() {
		if _, ok := s.windows[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Insert shifts every configured channel window of metric left by one and
// appends the channel's value, or a gap when values has no entry for it.
// The scale is then recomputed from the whole live window.
func (s *Store) Insert(metric domain.Metric, values map[domain.Channel]float64, label string) (Update, error) {
	s.mu.Lock()
	w, ok := s.windows[metric]
	if !ok {
		s.mu.Unlock()
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}

	shiftAppend(w.labels, label)
	for _, ch := range s.channels {
		p := Gap()
		if v, ok := values[ch]; ok && finite(v) {
			p = Value(v)
		}
		shiftAppend(w.points[ch], p)
	}

	prev := w.scale
	w.scale = SelectScale(w.steps, w.peak())
	up := Update{
		Metric:       metric,
		Label:        label,
		Scale:        w.scale,
		Previous:     prev,
		ScaleChanged: w.scale.Max != prev.Max,
	}
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	if up.ScaleChanged {
		log.Debug().Msgf("series.Store.Insert scale metric=%s max=%g prev=%g", metric, up.Scale.Max, prev.Max)
	}
	for _, o := range observers {
		o.SeriesUpdated(up)
		if up.ScaleChanged {
			o.ScaleChanged(metric, up.Scale)
		}
	}
	return up, nil
}

// InsertSample inserts one value per metric under the same label.
// Channels missing from the sample become gaps in every metric.
func (s *Store) InsertSample(sample domain.SensorSample, label string) ([]Update, error) {
	metrics := s.Metrics()
	updates := make([]Update, 0, len(metrics))
	for _, metric := range metrics {
		up, err := s.Insert(metric, sample.Values(metric), label)
		if err != nil {
			return updates, err
		}
		updates = append(updates, up)
	}
	return updates, nil
}

func (s *Store) Scale(metric domain.Metric) (Scale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[metric]
	if !ok {
		return Scale{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	return w.scale, nil
}

// Snapshot deep-copies the metric's labels, points and scale.
func (s *Store) Snapshot(metric domain.Metric) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[metric]
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	snap := Snapshot{
		Metric: metric,
		Labels: append([]string(nil), w.labels...),
		Points: make(map[domain.Channel][]Point, len(w.points)),
		Scale:  w.scale,
		Stats:  make(map[domain.Channel]Stats, len(w.points)),
	}
	for ch, pts := range w.points {
		snap.Points[ch] = append([]Point(nil), pts...)
		snap.Stats[ch] = computeStats(pts)
	}
	return snap, nil
}

// Latest returns the newest slot of a channel window.
func (s *Store) Latest(metric domain.Metric, ch domain.Channel) (Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.windows[metric]
	if !ok {
		return Point{}, false
	}
	pts, ok := w.points[ch]
	if !ok {
		return Point{}, false
	}
	return pts[len(pts)-1], true
}

func (w *window) peak() float64 {
	var peak float64
	found := false
	for _, pts := range w.points {
		for _, p := range pts {
			if !p.Valid {
				continue
			}
			if !found || p.Value > peak {
				peak = p.Value
				found = true
			}
		}
	}
	return peak
}

func shiftAppend[T any](ring []T, v T) {
	copy(ring, ring[1:])
	ring[len(ring)-1] = v
}
