package telemetry

import "time"

// LocationSample is one raw position event from the device. Timestamp is
// epoch milliseconds. Altitude and heading are optional.
type LocationSample struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Timestamp int64    `json:"timestamp"`
	SpeedMps  float64  `json:"speed_mps"`
	AltitudeM *float64 `json:"altitude_m,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
}

// RideSession is the cumulative state of one ride from start to stop.
// It is mutated only by the Aggregator; everyone else sees copies.
type RideSession struct {
	ID              string           `json:"id"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         time.Time        `json:"ended_at,omitempty"`
	DurationSec     int64            `json:"duration_sec"`
	DistanceKm      float64          `json:"distance_km"`
	CurrentSpeedKmh float64          `json:"current_speed_kmh"`
	AvgSpeedKmh     float64          `json:"avg_speed_kmh"`
	MaxSpeedKmh     float64          `json:"max_speed_kmh"`
	Calories        float64          `json:"calories"`
	ElevationGainM  float64          `json:"elevation_gain_m"`
	Route           []LocationSample `json:"route"`
}

// RideSummary is a ledger row without the route, used for history listings.
type RideSummary struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
	DurationSec    int64     `json:"duration_sec"`
	DistanceKm     float64   `json:"distance_km"`
	AvgSpeedKmh    float64   `json:"avg_speed_kmh"`
	MaxSpeedKmh    float64   `json:"max_speed_kmh"`
	Calories       float64   `json:"calories"`
	ElevationGainM float64   `json:"elevation_gain_m"`
}
