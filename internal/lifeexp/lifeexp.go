// Package lifeexp combines environmental stress and health risk with a
// regional baseline into an adjusted life expectancy.
package lifeexp

import (
	"errors"
	"time"

	"github.com/i474232898/env-risk-correlator/internal/common"
)

// ErrNotFound is returned when a region or area cannot be resolved.
var ErrNotFound = errors.New("region has no life expectancy baseline")

// BaselineTable resolves an administrative area to its base life
// expectancy in years.
type BaselineTable interface {
	Baseline(area string) (float64, error)
}

// ReportStore persists correlation reports. Append never deduplicates.
type ReportStore interface {
	Append(r CorrelationReport) error
	All() ([]CorrelationReport, error)
}

// Impact is the overall label of a combined penalty.
type Impact string

const (
	ImpactLow      Impact = "Low"
	ImpactModerate Impact = "Moderate"
	ImpactHigh     Impact = "High"
)

// ImpactOf labels a penalty in [0,1].
func ImpactOf(penalty float64) Impact {
	switch {
	case penalty < 0.20:
		return ImpactLow
	case penalty < 0.40:
		return ImpactModerate
	default:
		return ImpactHigh
	}
}

// Narrative thresholds.
const (
	pollutionThresholdPct = 30
	vitalsElevatedPct     = 15
)

// Estimate is the outcome of combining the two scores with a baseline.
type Estimate struct {
	Penalty     float64
	ChangePct   float64
	ChangeYears float64
	Predicted   float64
	Impact      Impact
}

// Combine weighs stress and risk equally and halves the resulting penalty
// into a percentage change of base.
func Combine(base, stress, risk float64) Estimate {
	penalty := 0.5*(stress/100) + 0.5*(risk/100)
	changePct := common.Round(penalty*100/2, 1)
	changeYears := common.Round((changePct/100)*base, 1)

	return Estimate{
		Penalty:     penalty,
		ChangePct:   changePct,
		ChangeYears: changeYears,
		Predicted:   common.Round(base-changeYears, 1),
		Impact:      ImpactOf(penalty),
	}
}

// CorrelationReport is one persisted correlation result.
type CorrelationReport struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`

	Region                  string  `json:"region"`
	Area                    string  `json:"area"`
	BaseLifeExpectancy      float64 `json:"base_life_expectancy"`
	EnvironmentalStressPct  float64 `json:"environmental_stress_pct"`
	HealthRiskPct           float64 `json:"health_risk_pct"`
	PredictedChangePct      float64 `json:"predicted_change_pct"`
	PredictedChangeYears    float64 `json:"predicted_change_years"`
	PredictedLifeExpectancy float64 `json:"predicted_life_expectancy"`
	Impact                  Impact  `json:"impact"`

	PollutionExceedsThreshold bool `json:"pollution_exceeds_threshold"`
	VitalsElevated            bool `json:"vitals_elevated"`
}
