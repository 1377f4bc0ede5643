package series

// Stats summarizes the present (non-gap) points of one channel window.
type Stats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Count int     `json:"count"`
}

func computeStats(points []Point) Stats {
	var (
		st  Stats
		sum float64
	)
	for _, p := range points {
		if !p.Valid {
			continue
		}
		if st.Count == 0 || p.Value < st.Min {
			st.Min = p.Value
		}
		if st.Count == 0 || p.Value > st.Max {
			st.Max = p.Value
		}
		sum += p.Value
		st.Count++
	}
	if st.Count > 0 {
		st.Avg = sum / float64(st.Count)
	}
	return st
}
