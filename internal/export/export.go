package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"backend-ridetrack/internal/telemetry"

	"github.com/tkrajina/gpxgo/gpx"
)

// ToGPX renders a completed ride as a GPX 1.1 track with one segment per
// ride. Samples without altitude produce points without an elevation tag.
func ToGPX(session telemetry.RideSession) ([]byte, error) {
	segment := gpx.GPXTrackSegment{}
	for _, sample := range session.Route {
		point := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  sample.Latitude,
				Longitude: sample.Longitude,
			},
			Timestamp: time.UnixMilli(sample.Timestamp).UTC(),
		}
		if sample.AltitudeM != nil {
			point.Elevation = *gpx.NewNullableFloat64(*sample.AltitudeM)
		}
		segment.Points = append(segment.Points, point)
	}

	started := session.StartedAt.UTC()
	doc := &gpx.GPX{
		Creator: "ridetrack",
		Name:    fmt.Sprintf("Ride %s", session.ID),
		Time:    &started,
		Tracks: []gpx.GPXTrack{{
			Name:     session.ID,
			Segments: []gpx.GPXTrackSegment{segment},
		}},
	}
	return doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}

// ToCSV renders the route as one row per sample.
func ToCSV(session telemetry.RideSession) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"timestamp", "latitude", "longitude", "speed_mps", "altitude_m", "heading"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, sample := range session.Route {
		row := []string{
			time.UnixMilli(sample.Timestamp).UTC().Format(time.RFC3339),
			strconv.FormatFloat(sample.Latitude, 'f', -1, 64),
			strconv.FormatFloat(sample.Longitude, 'f', -1, 64),
			strconv.FormatFloat(sample.SpeedMps, 'f', -1, 64),
			optionalFloat(sample.AltitudeM),
			optionalFloat(sample.Heading),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
