package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	openMeteoGeocodeURL  = "https://geocoding-api.open-meteo.com/v1"
	openMeteoForecastURL = "https://api.open-meteo.com/v1"
)

// ErrCityNotFound is returned when geocoding yields no results for the
// configured city string.
var ErrCityNotFound = fmt.Errorf("city not found")

// OpenMeteo resolves a free-text city to coordinates and fetches the
// current conditions, both against the keyless Open-Meteo APIs.
type OpenMeteo struct {
	geocodeURL  string
	forecastURL string
	httpClient  *http.Client
}

func NewOpenMeteo() *OpenMeteo {
	return &OpenMeteo{
		geocodeURL:  openMeteoGeocodeURL,
		forecastURL: openMeteoForecastURL,
		httpClient:  newHTTPClient(),
	}
}

// NewOpenMeteoWithBaseURLs exists for tests pointing at local servers.
func NewOpenMeteoWithBaseURLs(geocodeURL, forecastURL string) *OpenMeteo {
	c := NewOpenMeteo()
	c.geocodeURL = geocodeURL
	c.forecastURL = forecastURL
	return c
}

func (c *OpenMeteo) CurrentWeather(ctx context.Context, city string) (*Weather, error) {
	lat, lon, label, err := c.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"latitude":        {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":       {strconv.FormatFloat(lon, 'f', -1, 64)},
		"current_weather": {"true"},
	}
	endpoint := fmt.Sprintf("%s/forecast?%s", c.forecastURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build forecast request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast fetch returned status %d", resp.StatusCode)
	}

	var body struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
			WeatherCode int     `json:"weathercode"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	return &Weather{
		City:          label,
		TempC:         body.CurrentWeather.Temperature,
		WindSpeedKPH:  body.CurrentWeather.WindSpeed,
		ConditionCode: body.CurrentWeather.WeatherCode,
	}, nil
}

func (c *OpenMeteo) geocode(ctx context.Context, city string) (lat, lon float64, label string, err error) {
	query := url.Values{
		"name":  {city},
		"count": {"1"},
	}
	endpoint := fmt.Sprintf("%s/search?%s", c.geocodeURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, "", fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, "", fmt.Errorf("geocode fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, "", fmt.Errorf("geocode fetch returned status %d", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, "", fmt.Errorf("failed to decode geocode response: %w", err)
	}
	if len(body.Results) == 0 {
		return 0, 0, "", fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}

	first := body.Results[0]
	return first.Latitude, first.Longitude, first.Name, nil
}
