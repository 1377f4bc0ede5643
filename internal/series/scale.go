package series

// Subdivisions is the fixed number of grid steps under Scale.Max.
const Subdivisions = 5

type Scale struct {
	Max      float64 `json:"max"`
	StepSize float64 `json:"step_size"`
}

// SelectScale returns the smallest step >= peak, saturating at the largest
// step. steps must be non-empty and ascending.
func SelectScale(steps []float64, peak float64) Scale {
	top := steps[len(steps)-1]
	for _, step := range steps {
		if step >= peak {
			top = step
			break
		}
	}
	return Scale{Max: top, StepSize: top / Subdivisions}
}
