package weather

import (
	"fmt"
	"time"
)

// Reading is one structured weather observation.
type Reading struct {
	TemperatureC  float64   `json:"temperature_c"`
	Humidity      float64   `json:"humidity"`
	WindSpeedMps  float64   `json:"wind_speed_mps"`
	WindDirection string    `json:"wind_direction"`
	Condition     string    `json:"condition"`
	Precipitation float64   `json:"precipitation"`
	VisibilityKm  float64   `json:"visibility_km"`
	UVIndex       float64   `json:"uv_index"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// Location is a named coordinate, used for cache preloading.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BucketKey groups nearby lookups: coordinates rounded to two decimals put
// points within roughly 1.1 km into the same cache bucket.
func BucketKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

var conditionCodes = map[int]string{
	1000: "Clear",
	1100: "Mostly Clear",
	1101: "Partly Cloudy",
	1102: "Mostly Cloudy",
	2000: "Fog",
	2100: "Light Fog",
	3000: "Light Wind",
	3001: "Wind",
	3002: "Strong Wind",
	4000: "Drizzle",
	4001: "Rain",
	4200: "Light Rain",
	4201: "Heavy Rain",
	5000: "Snow",
	5001: "Flurries",
	5100: "Light Snow",
	5101: "Heavy Snow",
	6000: "Freezing Drizzle",
	6001: "Freezing Rain",
	6200: "Light Freezing Rain",
	6201: "Heavy Freezing Rain",
	7000: "Ice Pellets",
	7101: "Heavy Ice Pellets",
	7102: "Light Ice Pellets",
	8000: "Thunderstorm",
}

func conditionText(code int) string {
	if text, ok := conditionCodes[code]; ok {
		return text
	}
	return "Unknown"
}
