package air

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a store has no reading for a region.
	ErrNotFound = errors.New("no pollution reading for region")

	// ErrDataUnavailable is returned when every provider was unavailable.
	ErrDataUnavailable = errors.New("no air quality data available from any provider")
)

// Reason explains why a provider was unavailable. It is only used for
// logging and metrics; the gateway treats every reason the same way.
type Reason string

const (
	ReasonTransport     Reason = "transport"
	ReasonTimeout       Reason = "timeout"
	ReasonHTTPStatus    Reason = "http_status"
	ReasonStatusNotOK   Reason = "status_not_ok"
	ReasonMalformed     Reason = "malformed_payload"
	ReasonNoStation     Reason = "no_station"
	ReasonGeocodeEmpty  Reason = "geocode_empty"
	ReasonCircuitOpen   Reason = "circuit_open"
	ReasonNotConfigured Reason = "not_configured"
)

// FetchResult is either a reading (OK) or an unavailable outcome with a
// reason and the underlying cause. Only Available builds an OK result.
type FetchResult struct {
	Reading PollutionReading
	Reason  Reason
	Cause   error

	ok bool
}

// Available wraps a successful reading.
func Available(r PollutionReading) FetchResult {
	return FetchResult{Reading: r, ok: true}
}

// Unavailable builds a failed outcome. An empty reason is reported as
// ReasonTransport.
func Unavailable(reason Reason, cause error) FetchResult {
	if reason == "" {
		reason = ReasonTransport
	}
	return FetchResult{Reason: reason, Cause: cause}
}

// OK reports whether the result carries a reading.
func (r FetchResult) OK() bool {
	return r.ok
}

// Provider abstracts one air-quality data source (AQICN, OpenWeather).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, region string) FetchResult
}

// ReadingStore is the persisted reading collection. AppendIfAbsent must keep
// (region, time) unique and report whether the row was written.
type ReadingStore interface {
	AppendIfAbsent(r PollutionReading) (bool, error)
	All() ([]PollutionReading, error)
	Latest(region string) (PollutionReading, error)
}
