package air

import (
	"context"
	"errors"
	"fmt"
)

// ErrEstimatorFailed wraps errors returned by a TreeEstimator.
var ErrEstimatorFailed = errors.New("tree estimator failed")

// TreeEstimator is the contract of the external vegetation model: given the
// pollutant concentrations of a reading it returns the number of trees per
// square kilometre needed to offset them.
type TreeEstimator interface {
	Estimate(ctx context.Context, features PlantationFeatures) (int, error)
}

// PlantationFeatures is the feature vector the vegetation model was trained on.
type PlantationFeatures struct {
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	O3   float64 `json:"o3"`
}

// MeasureKind groups suggestions.
type MeasureKind string

const (
	MeasurePlantation MeasureKind = "plantation"
	MeasureMask       MeasureKind = "mask"
	MeasureControl    MeasureKind = "control"
	MeasureStatus     MeasureKind = "status"
)

// Measure is one protective or corrective suggestion.
type Measure struct {
	Kind MeasureKind `json:"kind"`
	Text string      `json:"text"`
}

// Thresholds follow WHO air quality guideline levels.
const (
	maskPM25Threshold       = 37.5
	plantationPM25Threshold = 15
	vehicleCOThreshold      = 200
	industrySO2Threshold    = 40
	trafficNO2Threshold     = 25
	urgentTreesPerSqKm      = 50
)

// SuggestMeasures derives protective measures from a reading. Rules whose
// component is missing from the reading are skipped. When estimator is
// non-nil its plantation estimate is listed first; an estimator failure is
// returned wrapped in ErrEstimatorFailed together with the remaining measures.
func SuggestMeasures(ctx context.Context, r PollutionReading, estimator TreeEstimator) ([]Measure, error) {
	var (
		measures []Measure
		estErr   error
	)

	if estimator != nil {
		trees, err := estimator.Estimate(ctx, featuresOf(r))
		if err != nil {
			estErr = fmt.Errorf("%w: %v", ErrEstimatorFailed, err)
		} else if trees > urgentTreesPerSqKm {
			measures = append(measures, Measure{Kind: MeasurePlantation, Text: fmt.Sprintf("Plantation requirement: %d trees per sq km needed", trees)})
		} else {
			measures = append(measures, Measure{Kind: MeasurePlantation, Text: "Plantation requirement: not urgent (within safe limits)"})
		}
	}

	mask := "No mask required"
	if above(r.PM25, maskPM25Threshold) {
		mask = "Wear a mask while going outside"
	}
	measures = append(measures, Measure{Kind: MeasureMask, Text: mask})

	if above(r.PM25, plantationPM25Threshold) {
		measures = append(measures, Measure{Kind: MeasureControl, Text: "Encourage plantation drives to reduce PM2.5"})
	}
	if atLeast(r.CO, vehicleCOThreshold) {
		measures = append(measures, Measure{Kind: MeasureControl, Text: "Reduce vehicle use, promote public transport"})
	}
	if atLeast(r.SO2, industrySO2Threshold) {
		measures = append(measures, Measure{Kind: MeasureControl, Text: "Control industrial emissions (SO2 beyond safe limit)"})
	}
	if atLeast(r.NO2, trafficNO2Threshold) {
		measures = append(measures, Measure{Kind: MeasureControl, Text: "Reduce traffic congestion (NO2 too high)"})
	}
	if r.PM25 != nil && *r.PM25 <= plantationPM25Threshold {
		measures = append(measures, Measure{Kind: MeasureStatus, Text: "Air quality is excellent. Maintain greenery!"})
	}

	return measures, estErr
}

func featuresOf(r PollutionReading) PlantationFeatures {
	return PlantationFeatures{
		PM25: valueOrZero(r.PM25),
		PM10: valueOrZero(r.PM10),
		CO:   valueOrZero(r.CO),
		NO2:  valueOrZero(r.NO2),
		SO2:  valueOrZero(r.SO2),
		O3:   valueOrZero(r.O3),
	}
}

func above(v *float64, limit float64) bool {
	return v != nil && *v > limit
}

func atLeast(v *float64, limit float64) bool {
	return v != nil && *v >= limit
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
