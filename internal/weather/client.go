package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"backend-ridetrack/internal/shared/geo"
)

// Client fetches current conditions from a tomorrow.io style realtime
// endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type realtimeResponse struct {
	Data struct {
		Values struct {
			Temperature         float64 `json:"temperature"`
			Humidity            float64 `json:"humidity"`
			WindSpeed           float64 `json:"windSpeed"`
			WindDirection       float64 `json:"windDirection"`
			WeatherCode         int     `json:"weatherCode"`
			PrecipitationChance float64 `json:"precipitationProbability"`
			Visibility          float64 `json:"visibility"`
			UVIndex             float64 `json:"uvIndex"`
		} `json:"values"`
	} `json:"data"`
}

// Fetch retrieves current conditions for a coordinate. The provider's
// numeric wind direction is translated to a compass octant and its weather
// code to a condition label.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (Reading, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", lat, lon))
	q.Set("units", "metric")
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to build weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("weather provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Reading{}, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var body realtimeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Reading{}, fmt.Errorf("failed to parse weather response: %w", err)
	}

	v := body.Data.Values
	return Reading{
		TemperatureC:  v.Temperature,
		Humidity:      v.Humidity,
		WindSpeedMps:  v.WindSpeed,
		WindDirection: geo.CompassOctant(v.WindDirection),
		Condition:     conditionText(v.WeatherCode),
		Precipitation: v.PrecipitationChance,
		VisibilityKm:  v.Visibility,
		UVIndex:       v.UVIndex,
		FetchedAt:     time.Now().UTC(),
	}, nil
}
