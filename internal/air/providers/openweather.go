package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/common"
)

// owmScale maps the OpenWeather 1-5 air quality category onto the 0-500
// index used by the primary feed.
var owmScale = map[int]int{
	1: 40,
	2: 85,
	3: 120,
	4: 160,
	5: 190,
}

const owmDefaultAQI = 100

// ScaleOpenWeatherAQI converts an OpenWeather category to a numeric index.
func ScaleOpenWeatherAQI(category int) int {
	if v, ok := owmScale[category]; ok {
		return v
	}
	return owmDefaultAQI
}

// OpenWeatherProvider implements air.Provider for the OpenWeather air
// pollution API. Regions are resolved to coordinates with a Geocoder first.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	timeout  time.Duration
	geocoder Geocoder
	req      *requester
	location *time.Location
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiKey string, geocoder Geocoder, timeout time.Duration) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		baseURL:  "http://api.openweathermap.org/data/2.5/air_pollution",
		timeout:  timeout,
		geocoder: geocoder,
		req:      newRequester("openweather", cfg),
		location: time.Local,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, region string) air.FetchResult {
	if p.apiKey == "" {
		return air.Unavailable(air.ReasonNotConfigured, errors.New("openweather api key is not configured"))
	}
	if p.geocoder == nil {
		return air.Unavailable(air.ReasonNotConfigured, errors.New("openweather geocoder is not configured"))
	}

	coords, err := p.lookUp(ctx, region)
	if err != nil {
		return air.Unavailable(reasonOf(err), fmt.Errorf("geocode %q: %w", region, err))
	}

	return p.fetchAt(ctx, region, coords)
}

func (p *OpenWeatherProvider) lookUp(ctx context.Context, region string) (Coordinates, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.geocoder.LookUp(ctx, region)
}

func (p *OpenWeatherProvider) fetchAt(ctx context.Context, region string, coords Coordinates) air.FetchResult {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	values := url.Values{}
	values.Set("lat", fmt.Sprintf("%f", coords.Lat))
	values.Set("lon", fmt.Sprintf("%f", coords.Lon))
	values.Set("appid", p.apiKey)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	if err != nil {
		return air.Unavailable(air.ReasonTransport, redactURL(err))
	}

	resp, reason, err := p.req.do(ctx, req)
	if err != nil {
		return air.Unavailable(reason, err)
	}
	defer resp.Body.Close()

	var payload struct {
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				AQI int `json:"aqi"`
			} `json:"main"`
			Components map[string]float64 `json:"components"`
		} `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return air.Unavailable(classifyDecode(err), fmt.Errorf("decode openweather payload: %w", err))
	}
	if len(payload.List) == 0 {
		return air.Unavailable(air.ReasonMalformed, errors.New("openweather payload has no entries"))
	}

	entry := payload.List[0]
	component := func(key string) *float64 {
		return air.Float(common.Round(entry.Components[key], 2))
	}

	return air.Available(air.PollutionReading{
		Region: region,
		Time:   time.Unix(entry.Dt, 0).In(p.location).Format("2006-01-02 15:04:05"),
		CO:     component("co"),
		NO2:    component("no2"),
		O3:     component("o3"),
		PM25:   component("pm2_5"),
		PM10:   component("pm10"),
		SO2:    component("so2"),
		AQI:    ScaleOpenWeatherAQI(entry.Main.AQI),
		Source: air.SourceFallback,
	})
}

func (p *OpenWeatherProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
