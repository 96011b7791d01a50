package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/kelvins/geocoder"
	gocache "github.com/patrickmn/go-cache"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/common"
)

// ErrNoLocation is returned by a Geocoder that found no match for a name.
var ErrNoLocation = errors.New("no location found")

// Coordinates is a resolved latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder resolves a region name to coordinates.
type Geocoder interface {
	LookUp(ctx context.Context, region string) (Coordinates, error)
}

// lookupError carries the unavailability reason of a failed lookup.
type lookupError struct {
	reason air.Reason
	err    error
}

func (e *lookupError) Error() string { return e.err.Error() }
func (e *lookupError) Unwrap() error { return e.err }

// reasonOf maps a geocoder error onto a provider unavailability reason.
func reasonOf(err error) air.Reason {
	var le *lookupError
	switch {
	case errors.Is(err, ErrNoLocation):
		return air.ReasonGeocodeEmpty
	case errors.As(err, &le):
		return le.reason
	default:
		return classifyTransport(err)
	}
}

// OpenWeatherGeocoder uses the OpenWeather direct geocoding endpoint.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	req     *requester
}

func NewOpenWeatherGeocoder(cfg HTTPClientConfig, apiKey string) *OpenWeatherGeocoder {
	return &OpenWeatherGeocoder{
		apiKey:  apiKey,
		baseURL: "http://api.openweathermap.org/geo/1.0/direct",
		req:     newRequester("openweather-geocode", cfg),
	}
}

func (g *OpenWeatherGeocoder) LookUp(ctx context.Context, region string) (Coordinates, error) {
	if g.apiKey == "" {
		return Coordinates{}, &lookupError{reason: air.ReasonNotConfigured, err: errors.New("openweather api key is not configured")}
	}

	values := url.Values{}
	values.Set("q", region)
	values.Set("limit", "1")
	values.Set("appid", g.apiKey)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
	if err != nil {
		return Coordinates{}, &lookupError{reason: air.ReasonTransport, err: redactURL(err)}
	}

	resp, reason, err := g.req.do(ctx, req)
	if err != nil {
		return Coordinates{}, &lookupError{reason: reason, err: err}
	}
	defer resp.Body.Close()

	var payload []Coordinates
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Coordinates{}, &lookupError{reason: classifyDecode(err), err: fmt.Errorf("decode geocode payload: %w", err)}
	}
	if len(payload) == 0 {
		return Coordinates{}, ErrNoLocation
	}
	return payload[0], nil
}

// GoogleGeocoder resolves names through the Google Geocoding API. The
// underlying client keeps its key in package state, so lookups are
// serialized and do not observe ctx cancellation.
type GoogleGeocoder struct {
	apiKey string
	mu     sync.Mutex
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

func (g *GoogleGeocoder) LookUp(ctx context.Context, region string) (Coordinates, error) {
	if g.apiKey == "" {
		return Coordinates{}, &lookupError{reason: air.ReasonNotConfigured, err: errors.New("google geocoder api key is not configured")}
	}
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	geocoder.ApiKey = g.apiKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: region})
	if err != nil {
		if common.HasAny(common.NormalizeKey(err.Error()), "zero_results", "zero results", "no results") {
			return Coordinates{}, ErrNoLocation
		}
		return Coordinates{}, &lookupError{reason: classifyTransport(err), err: err}
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return Coordinates{}, ErrNoLocation
	}
	return Coordinates{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}

// CachedGeocoder memoizes successful lookups of another Geocoder. Misses and
// failures are not cached.
type CachedGeocoder struct {
	next  Geocoder
	cache *gocache.Cache
}

func NewCachedGeocoder(next Geocoder, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		next:  next,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedGeocoder) LookUp(ctx context.Context, region string) (Coordinates, error) {
	key := common.NormalizeKey(region)
	if v, ok := c.cache.Get(key); ok {
		return v.(Coordinates), nil
	}
	coords, err := c.next.LookUp(ctx, region)
	if err != nil {
		return Coordinates{}, err
	}
	c.cache.Set(key, coords, gocache.DefaultExpiration)
	return coords, nil
}

// FirstGeocoder tries each geocoder in order and returns the first match.
type FirstGeocoder []Geocoder

func (f FirstGeocoder) LookUp(ctx context.Context, region string) (Coordinates, error) {
	err := error(ErrNoLocation)
	for _, g := range f {
		coords, lookupErr := g.LookUp(ctx, region)
		if lookupErr == nil {
			return coords, nil
		}
		err = lookupErr
	}
	return Coordinates{}, err
}
