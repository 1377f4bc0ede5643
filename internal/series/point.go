package series

import (
	"math"
	"strconv"
)

// Point is one window slot. The zero value is a gap.
type Point struct {
	Value float64
	Valid bool
}

func Gap() Point {
	return Point{}
}

func Value(v float64) Point {
	return Point{Value: v, Valid: true}
}

// MarshalJSON renders gaps and non-finite values as null.
func (p Point) MarshalJSON() ([]byte, error) {
	if !p.Valid || !finite(p.Value) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, p.Value, 'g', -1, 64), nil
}

func (p *Point) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = Point{}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*p = Value(v)
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
