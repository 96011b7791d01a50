package air

import (
	"github.com/i474232898/env-risk-correlator/internal/common"
)

// Source identifies which provider produced a reading.
type Source string

const (
	SourcePrimary  Source = "PRIMARY"
	SourceFallback Source = "FALLBACK"
)

// NormalizeRegion returns the canonical join key for a region name.
func NormalizeRegion(region string) string {
	return common.NormalizeKey(region)
}

// PollutionReading is one air-quality snapshot for a region.
// Pollutant values are in provider-reported units; nil means the provider
// did not report that component. Time is the provider-local timestamp
// string; it is only used as an ordering and dedup key and is never parsed.
type PollutionReading struct {
	Region string `json:"region"`
	Time   string `json:"time"`

	CO   *float64 `json:"co"`
	NO2  *float64 `json:"no2"`
	O3   *float64 `json:"o3"`
	PM25 *float64 `json:"pm2_5"`
	PM10 *float64 `json:"pm10"`
	SO2  *float64 `json:"so2"`

	AQI    int    `json:"aqi"`
	Source Source `json:"source"`
}

// Key returns the dedup key for a reading: (region, time).
func (r PollutionReading) Key() string {
	return ReadingKey(r.Region, r.Time)
}

// ReadingKey builds the dedup key used by reading stores.
func ReadingKey(region, ts string) string {
	return NormalizeRegion(region) + "|" + ts
}

// Analysis is the classified view of the latest stored reading for a region.
type Analysis struct {
	Region string `json:"region"`
	Time   string `json:"time"`
	AQI    int    `json:"aqi"`
	Band   Band   `json:"band"`
	Source Source `json:"source"`
}

// Float returns a pointer to v, for building readings with present components.
func Float(v float64) *float64 {
	return &v
}
