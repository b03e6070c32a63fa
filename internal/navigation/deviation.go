package navigation

import "backend-ridetrack/internal/shared/geo"

// DeviationMonitor reports how far a position is from a planned route and
// whether the reroute threshold is exceeded. It only signals the condition;
// requesting a fresh route is the caller's job.
type DeviationMonitor struct {
	thresholdM float64
}

func NewDeviationMonitor(thresholdM float64) *DeviationMonitor {
	return &DeviationMonitor{thresholdM: thresholdM}
}

// Check scans the route linearly for the closest point. Routes are tens to
// low hundreds of points, so no spatial index is needed.
func (m *DeviationMonitor) Check(route []Point, pos Point) (float64, bool) {
	if len(route) == 0 {
		return 0, false
	}

	min := geo.DistanceMeters(pos.Latitude, pos.Longitude, route[0].Latitude, route[0].Longitude)
	for _, p := range route[1:] {
		if d := geo.DistanceMeters(pos.Latitude, pos.Longitude, p.Latitude, p.Longitude); d < min {
			min = d
		}
	}
	return min, min > m.thresholdM
}
