package feeds

import (
	"context"
	"net/http"
	"time"
)

// FetchTimeout bounds every outbound provider call so a hung upstream
// cannot stall a device's poll.
const FetchTimeout = 8 * time.Second

// Price is the current bitcoin quote.
type Price struct {
	USD       float64 `json:"price_usd"`
	Change24h float64 `json:"change_24h"`
}

// Weather is the current-conditions snapshot for a city.
type Weather struct {
	City          string  `json:"city"`
	TempC         float64 `json:"temp_c"`
	WindSpeedKPH  float64 `json:"windspeed_kph"`
	ConditionCode int     `json:"condition_code"`
}

type PriceClient interface {
	CurrentPrice(ctx context.Context) (*Price, error)
}

type WeatherClient interface {
	CurrentWeather(ctx context.Context, city string) (*Weather, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: FetchTimeout}
}
