package navigation

import "backend-ridetrack/internal/shared/geo"

// Instruction is a compass-direction hint toward the next route point.
// Arrived is set when the nearest route point is the final one; that state
// is distinct from having no route at all, which NextInstruction reports as
// ErrNoRoute.
type Instruction struct {
	Arrived    bool    `json:"arrived"`
	Direction  string  `json:"direction,omitempty"`
	BearingDeg float64 `json:"bearing_deg,omitempty"`
}

// NextInstruction finds the nearest route point (earliest index wins ties)
// and derives a compass-octant instruction toward the point after it.
func NextInstruction(route []Point, pos Point) (Instruction, error) {
	if len(route) == 0 {
		return Instruction{}, ErrNoRoute
	}

	nearest := 0
	min := geo.DistanceMeters(pos.Latitude, pos.Longitude, route[0].Latitude, route[0].Longitude)
	for i := 1; i < len(route); i++ {
		if d := geo.DistanceMeters(pos.Latitude, pos.Longitude, route[i].Latitude, route[i].Longitude); d < min {
			min = d
			nearest = i
		}
	}

	if nearest+1 >= len(route) {
		return Instruction{Arrived: true}, nil
	}

	next := route[nearest+1]
	bearing := geo.BearingDegrees(pos.Latitude, pos.Longitude, next.Latitude, next.Longitude)
	return Instruction{
		Direction:  geo.CompassOctant(bearing),
		BearingDeg: bearing,
	}, nil
}
