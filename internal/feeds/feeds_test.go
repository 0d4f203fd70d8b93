package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinGecko_CurrentPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"bitcoin":{"usd":67123.45,"usd_24h_change":-2.31}}`))
	}))
	defer server.Close()

	client := NewCoinGeckoWithBaseURL(server.URL)
	price, err := client.CurrentPrice(context.Background())

	require.NoError(t, err)
	assert.InDelta(t, 67123.45, price.USD, 0.001)
	assert.InDelta(t, -2.31, price.Change24h, 0.001)
}

func TestCoinGecko_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewCoinGeckoWithBaseURL(server.URL)
	_, err := client.CurrentPrice(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenMeteo_CurrentWeather(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Portland,US", r.URL.Query().Get("name"))
		w.Write([]byte(`{"results":[{"name":"Portland","latitude":45.52,"longitude":-122.68}]}`))
	}))
	defer geo.Close()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "45.52", r.URL.Query().Get("latitude"))
		w.Write([]byte(`{"current_weather":{"temperature":21.5,"windspeed":14.2,"weathercode":3}}`))
	}))
	defer forecast.Close()

	client := NewOpenMeteoWithBaseURLs(geo.URL, forecast.URL)
	weather, err := client.CurrentWeather(context.Background(), "Portland,US")

	require.NoError(t, err)
	assert.Equal(t, "Portland", weather.City)
	assert.InDelta(t, 21.5, weather.TempC, 0.001)
	assert.InDelta(t, 14.2, weather.WindSpeedKPH, 0.001)
	assert.Equal(t, 3, weather.ConditionCode)
}

func TestOpenMeteo_CityNotFound(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer geo.Close()

	client := NewOpenMeteoWithBaseURLs(geo.URL, "http://unused.invalid")
	_, err := client.CurrentWeather(context.Background(), "Atlantis")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCityNotFound)
}
