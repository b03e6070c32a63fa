package navigation

import "errors"

var (
	// ErrNoRoute is returned when a position is reported with no planned route.
	ErrNoRoute = errors.New("no route loaded")
	// ErrNoRouteFound is returned when the directions provider has no route.
	ErrNoRouteFound = errors.New("no route found")
)

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TravelMode string

const (
	ModeBicycling TravelMode = "bicycling"
	ModeWalking   TravelMode = "walking"
)

type RouteOptions struct {
	Mode          TravelMode `json:"mode"`
	AvoidHighways bool       `json:"avoid_highways"`
	AvoidTolls    bool       `json:"avoid_tolls"`
	Alternatives  bool       `json:"alternatives"`
}

func DefaultOptions() RouteOptions {
	return RouteOptions{
		Mode:          ModeBicycling,
		AvoidHighways: true,
		AvoidTolls:    true,
		Alternatives:  true,
	}
}

// RoutePlan is a planned route from the directions provider. Steps are
// passed through verbatim for display; guidance works off Points only.
type RoutePlan struct {
	Origin      Point    `json:"origin"`
	Destination Point    `json:"destination"`
	DistanceKm  float64  `json:"distance_km"`
	DurationSec int64    `json:"duration_sec"`
	Points      []Point  `json:"points"`
	Steps       []string `json:"steps"`
}

// Guidance is the per-position report: how far off the planned route the
// rider is, whether the reroute threshold was exceeded, and the next
// compass instruction (empty when arrived).
type Guidance struct {
	OffRouteM   float64 `json:"off_route_m"`
	Deviated    bool    `json:"deviated"`
	Rerouted    bool    `json:"rerouted"`
	Arrived     bool    `json:"arrived"`
	Instruction string  `json:"instruction,omitempty"`
}
