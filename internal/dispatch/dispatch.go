// Package dispatch routes decoded envelopes to the series store and the
// display collaborators, one envelope at a time in arrival order.
package dispatch

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/danmuck/powermon/internal/domain"
	"github.com/danmuck/powermon/internal/observability"
	"github.com/danmuck/powermon/internal/protocol"
	"github.com/danmuck/powermon/internal/series"
	"github.com/rs/zerolog/log"
)

// LabelLayout is the time label format used for window slots.
const LabelLayout = "15:04:05"

// Readout shows the latest sample as headline values.
type Readout interface {
	UpdateReadout(sample domain.SensorSample)
}

// StatusDisplay shows Wi-Fi and load-switch state.
type StatusDisplay interface {
	UpdateWifi(status protocol.WifiStatus)
	UpdateSwitch(status protocol.SwitchStatus)
}

// Sinks are the dispatch targets. Nil members are skipped.
type Sinks struct {
	Store    *series.Store
	Readout  Readout
	Status   StatusDisplay
	Terminal io.Writer
	Location *time.Location
}

type Dispatcher struct {
	sinks      Sinks
	dispatched atomic.Int64
	unknown    atomic.Int64
}

func New(sinks Sinks) *Dispatcher {
	if sinks.Location == nil {
		sinks.Location = time.Local
	}
	return &Dispatcher{sinks: sinks}
}

// Dispatch routes one envelope. It never panics on an unrecognized tag;
// those are counted and dropped.
func (d *Dispatcher) Dispatch(env protocol.Envelope) {
	d.dispatched.Add(1)
	observability.RecordEnvelope(env.Tag.String())

	switch env.Tag {
	case protocol.TagSensorData:
		sample, ok := env.Sensor()
		if !ok {
			d.dropMismatched(env)
			return
		}
		d.dispatchSample(sample)
	case protocol.TagWifiStatus:
		status, ok := env.Wifi()
		if !ok {
			d.dropMismatched(env)
			return
		}
		if d.sinks.Status != nil {
			d.sinks.Status.UpdateWifi(status)
		}
	case protocol.TagSwitchStatus:
		status, ok := env.Switch()
		if !ok {
			d.dropMismatched(env)
			return
		}
		if d.sinks.Status != nil {
			d.sinks.Status.UpdateSwitch(status)
		}
	case protocol.TagUARTData:
		data, ok := env.UART()
		if !ok {
			d.dropMismatched(env)
			return
		}
		if d.sinks.Terminal != nil && len(data.Data) > 0 {
			if _, err := d.sinks.Terminal.Write(data.Data); err != nil {
				log.Warn().Msgf("dispatch.Dispatcher.Dispatch terminal write err=%v", err)
			}
		}
	case protocol.TagUnknown:
		d.unknown.Add(1)
		log.Warn().Msgf("dispatch.Dispatcher.Dispatch unknown payload count=%d", d.unknown.Load())
	default:
		d.unknown.Add(1)
		log.Warn().Msgf("dispatch.Dispatcher.Dispatch unrecognized tag=%d", env.Tag)
	}
}

func (d *Dispatcher) dispatchSample(sample domain.SensorSample) {
	if d.sinks.Store != nil {
		updates, err := d.sinks.Store.InsertSample(sample, d.Label(sample))
		if err != nil {
			log.Error().Msgf("dispatch.Dispatcher.dispatchSample insert err=%v", err)
		}
		for _, up := range updates {
			observability.RecordSeriesInsert(up.Metric.String(), up.Scale.Max, up.ScaleChanged)
		}
	}
	if d.sinks.Readout != nil {
		d.sinks.Readout.UpdateReadout(sample)
	}
}

func (d *Dispatcher) dropMismatched(env protocol.Envelope) {
	d.unknown.Add(1)
	log.Warn().Msgf("dispatch.Dispatcher.Dispatch payload mismatch tag=%s", env.Tag)
}

// Label renders the sample's device timestamp as a local wall-clock label.
func (d *Dispatcher) Label(sample domain.SensorSample) string {
	if sample.TimestampMs <= 0 {
		return ""
	}
	return sample.Time().In(d.sinks.Location).Format(LabelLayout)
}

// Dispatched counts every envelope handed to Dispatch.
func (d *Dispatcher) Dispatched() int64 {
	return d.dispatched.Load()
}

// Unknown counts envelopes dropped as unrecognized.
func (d *Dispatcher) Unknown() int64 {
	return d.unknown.Load()
}
