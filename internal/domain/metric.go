package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMetric = errors.New("domain: unknown metric")

// Metric is one tracked electrical quantity.
type Metric string

const (
	MetricVoltage Metric = "voltage"
	MetricCurrent Metric = "current"
	MetricPower   Metric = "power"
)

// Metrics returns every metric in display order.
func Metrics() []Metric {
	return []Metric{MetricPower, MetricVoltage, MetricCurrent}
}

func (m Metric) String() string {
	return string(m)
}

// Unit returns the display unit suffix for the metric.
func (m Metric) Unit() string {
	switch m {
	case MetricVoltage:
		return "V"
	case MetricCurrent:
		return "A"
	case MetricPower:
		return "W"
	default:
		return ""
	}
}

func ParseMetric(raw string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(raw))) {
	case MetricVoltage:
		return MetricVoltage, nil
	case MetricCurrent:
		return MetricCurrent, nil
	case MetricPower:
		return MetricPower, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, raw)
	}
}
