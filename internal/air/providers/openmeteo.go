package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/env-risk-correlator/internal/air"
)

// OpenMeteoGeocoder uses the keyless Open-Meteo geocoding search.
type OpenMeteoGeocoder struct {
	baseURL string
	req     *requester
}

func NewOpenMeteoGeocoder(cfg HTTPClientConfig) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		baseURL: "https://geocoding-api.open-meteo.com/v1/search",
		req:     newRequester("openmeteo-geocode", cfg),
	}
}

func (g *OpenMeteoGeocoder) LookUp(ctx context.Context, region string) (Coordinates, error) {
	values := url.Values{}
	values.Set("name", region)
	values.Set("count", "1")

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
	if err != nil {
		return Coordinates{}, &lookupError{reason: air.ReasonTransport, err: err}
	}

	resp, reason, err := g.req.do(ctx, req)
	if err != nil {
		return Coordinates{}, &lookupError{reason: reason, err: err}
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Coordinates{}, &lookupError{reason: classifyDecode(err), err: fmt.Errorf("decode open-meteo payload: %w", err)}
	}
	if len(payload.Results) == 0 {
		return Coordinates{}, ErrNoLocation
	}
	return Coordinates{Lat: payload.Results[0].Latitude, Lon: payload.Results[0].Longitude}, nil
}
