package telemetry

import (
	"errors"
	"time"
)

const (
	maxPlausibleSpeedMps = 100.0
	maxSampleAge         = 60 * time.Second
)

var (
	ErrCoordinatesOutOfRange = errors.New("coordinates out of range")
	ErrImplausibleSpeed      = errors.New("implausible speed")
	ErrSampleFromFuture      = errors.New("sample timestamp in the future")
	ErrSampleTooOld          = errors.New("sample timestamp too old")
)

// ValidateSample rejects physically impossible or stale samples before they
// reach aggregation. It is a pure predicate; the caller decides whether to
// log or drop.
func ValidateSample(s LocationSample, now time.Time) error {
	if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
		return ErrCoordinatesOutOfRange
	}
	if s.SpeedMps < 0 || s.SpeedMps > maxPlausibleSpeedMps {
		return ErrImplausibleSpeed
	}
	at := time.UnixMilli(s.Timestamp)
	if at.After(now) {
		return ErrSampleFromFuture
	}
	if now.Sub(at) > maxSampleAge {
		return ErrSampleTooOld
	}
	return nil
}
