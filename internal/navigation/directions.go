package navigation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DirectionsClient talks to the external routing provider. The engine only
// depends on the decoded point list; step text is passed through.
type DirectionsClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewDirectionsClient(baseURL, apiKey string) *DirectionsClient {
	return &DirectionsClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type directionsResponse struct {
	Routes []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value float64 `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int64 `json:"value"`
			} `json:"duration"`
			Steps []struct {
				HTMLInstructions string `json:"html_instructions"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route requests a route between two points. Non-2xx responses and payloads
// without a usable route are both reported as errors.
func (c *DirectionsClient) Route(ctx context.Context, origin, dest Point, opts RouteOptions) (RoutePlan, error) {
	if opts.Mode == "" {
		opts = DefaultOptions()
	}

	var avoid []string
	if opts.AvoidHighways {
		avoid = append(avoid, "highways")
	}
	if opts.AvoidTolls {
		avoid = append(avoid, "tolls")
	}

	params := url.Values{}
	params.Set("origin", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	params.Set("destination", fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude))
	params.Set("mode", string(opts.Mode))
	params.Set("avoid", strings.Join(avoid, "|"))
	params.Set("alternatives", fmt.Sprintf("%t", opts.Alternatives))
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return RoutePlan{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return RoutePlan{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RoutePlan{}, fmt.Errorf("directions api status %d", resp.StatusCode)
	}

	var body directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RoutePlan{}, fmt.Errorf("malformed directions payload: %w", err)
	}
	if len(body.Routes) == 0 || len(body.Routes[0].Legs) == 0 {
		return RoutePlan{}, ErrNoRouteFound
	}

	route := body.Routes[0]
	leg := route.Legs[0]

	steps := make([]string, 0, len(leg.Steps))
	for _, s := range leg.Steps {
		steps = append(steps, stripTags(s.HTMLInstructions))
	}

	return RoutePlan{
		Origin:      origin,
		Destination: dest,
		DistanceKm:  leg.Distance.Value / 1000,
		DurationSec: leg.Duration.Value,
		Points:      decodePolyline(route.OverviewPolyline.Points),
		Steps:       steps,
	}, nil
}

// decodePolyline expands an encoded polyline into coordinates.
func decodePolyline(encoded string) []Point {
	var points []Point
	var lat, lon int64

	for i := 0; i < len(encoded); {
		var dLat, dLon int64
		dLat, i = decodeVarint(encoded, i)
		dLon, i = decodeVarint(encoded, i)
		lat += dLat
		lon += dLon
		points = append(points, Point{
			Latitude:  float64(lat) * 1e-5,
			Longitude: float64(lon) * 1e-5,
		})
	}
	return points
}

func decodeVarint(encoded string, i int) (int64, int) {
	var result int64
	var shift uint
	for i < len(encoded) {
		b := int64(encoded[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}
	if result&1 != 0 {
		return ^(result >> 1), i
	}
	return result >> 1, i
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
