// Package risk turns raw pollution and vitals values into 0-100 scores.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/common"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

// ErrIncompleteReading is returned when a reading lacks a component the
// stress formula needs.
var ErrIncompleteReading = errors.New("reading is missing a required pollutant")

// Stress weights and normalizing scales.
const (
	weightAQI  = 0.40
	weightPM25 = 0.25
	weightPM10 = 0.15
	weightNO2  = 0.10
	weightSO2  = 0.10

	scaleAQI  = 500.0
	scalePM25 = 250.0
	scalePM10 = 300.0
	scaleNO2  = 100.0
	scaleSO2  = 100.0
)

// Health risk weights per out-of-band vital.
const (
	weightHeartRate = 0.10
	weightSystolic  = 0.15
	weightDiastolic = 0.15
	weightOxygen    = 0.15
)

// Stress computes the environmental stress percentage of a reading.
func Stress(r air.PollutionReading) (float64, error) {
	var missing []string
	need := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	pm25 := need("pm2_5", r.PM25)
	pm10 := need("pm10", r.PM10)
	no2 := need("no2", r.NO2)
	so2 := need("so2", r.SO2)
	if len(missing) > 0 {
		return 0, fmt.Errorf("%w: %v", ErrIncompleteReading, missing)
	}

	raw := weightAQI*(float64(r.AQI)/scaleAQI) +
		weightPM25*(pm25/scalePM25) +
		weightPM10*(pm10/scalePM10) +
		weightNO2*(no2/scaleNO2) +
		weightSO2*(so2/scaleSO2)

	return clampPct(common.Round(raw*100, 1)), nil
}

// HealthRisk computes the physiological risk percentage of a vitals record.
// The weights cap the result at 55.
func HealthRisk(r vitals.Record) float64 {
	var raw float64
	if !vitals.HeartRateRange.Contains(r.HeartRate) {
		raw += weightHeartRate
	}
	if !vitals.SystolicRange.Contains(r.Systolic) {
		raw += weightSystolic
	}
	if !vitals.DiastolicRange.Contains(r.Diastolic) {
		raw += weightDiastolic
	}
	if r.Oxygen < vitals.OxygenRange.Min {
		raw += weightOxygen
	}
	return clampPct(common.Round(raw*100, 1))
}

func clampPct(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}
