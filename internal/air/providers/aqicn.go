package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/env-risk-correlator/internal/air"
)

// AQICNProvider implements air.Provider for the World Air Quality Index feed.
type AQICNProvider struct {
	name    string
	token   string
	baseURL string
	timeout time.Duration
	req     *requester
}

func NewAQICNProvider(cfg HTTPClientConfig, token string, timeout time.Duration) *AQICNProvider {
	return &AQICNProvider{
		name:    "aqicn",
		token:   token,
		baseURL: "https://api.waqi.info/feed",
		timeout: timeout,
		req:     newRequester("aqicn", cfg),
	}
}

func (p *AQICNProvider) Name() string {
	return p.name
}

// aqicnEnvelope is decoded first: on errors the feed puts a message string
// in data instead of the station object.
type aqicnEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type aqicnStation struct {
	AQI  json.RawMessage `json:"aqi"`
	Time struct {
		S string `json:"s"`
	} `json:"time"`
	IAQI map[string]struct {
		V *float64 `json:"v"`
	} `json:"iaqi"`
}

func (p *AQICNProvider) Fetch(ctx context.Context, region string) air.FetchResult {
	if p.token == "" {
		return air.Unavailable(air.ReasonNotConfigured, errors.New("aqicn token is not configured"))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	u := fmt.Sprintf("%s/%s/?token=%s", p.baseURL, url.PathEscape(region), url.QueryEscape(p.token))
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return air.Unavailable(air.ReasonTransport, redactURL(err))
	}

	resp, reason, err := p.req.do(ctx, req)
	if err != nil {
		return air.Unavailable(reason, err)
	}
	defer resp.Body.Close()

	var envelope aqicnEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return air.Unavailable(classifyDecode(err), fmt.Errorf("decode aqicn payload: %w", err))
	}
	if envelope.Status != "ok" {
		return air.Unavailable(air.ReasonStatusNotOK, fmt.Errorf("aqicn status %q: %s", envelope.Status, string(envelope.Data)))
	}

	var station aqicnStation
	if err := json.Unmarshal(envelope.Data, &station); err != nil {
		return air.Unavailable(air.ReasonMalformed, fmt.Errorf("decode aqicn station: %w", err))
	}
	if station.Time.S == "" {
		return air.Unavailable(air.ReasonMalformed, errors.New("aqicn payload has no timestamp"))
	}

	aqi, ok := parseAQICNIndex(station.AQI)
	if !ok {
		// The feed reports "-" when the matched station has no current index.
		return air.Unavailable(air.ReasonNoStation, fmt.Errorf("aqicn aqi %s", string(station.AQI)))
	}

	component := func(key string) *float64 {
		if v, ok := station.IAQI[key]; ok {
			return v.V
		}
		return nil
	}

	return air.Available(air.PollutionReading{
		Region: region,
		Time:   station.Time.S,
		CO:     component("co"),
		NO2:    component("no2"),
		O3:     component("o3"),
		PM25:   component("pm25"),
		PM10:   component("pm10"),
		SO2:    component("so2"),
		AQI:    aqi,
		Source: air.SourcePrimary,
	})
}

func parseAQICNIndex(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(s); err == nil {
			return v, true
		}
	}
	return 0, false
}

// classifyDecode keeps timeouts surfacing while the body is read distinct
// from genuinely malformed payloads.
func classifyDecode(err error) air.Reason {
	if classifyTransport(err) == air.ReasonTimeout {
		return air.ReasonTimeout
	}
	return air.ReasonMalformed
}
