package vitals

import (
	"github.com/i474232898/env-risk-correlator/internal/common"
)

// Status is the position of a vital relative to its healthy range.
type Status string

const (
	StatusLow    Status = "LOW"
	StatusNormal Status = "NORMAL"
	StatusHigh   Status = "HIGH"
)

// Range is an inclusive healthy band.
type Range struct {
	Min float64 `json:"healthy_min"`
	Max float64 `json:"healthy_max"`
}

// Healthy bands shared with the health risk scorer.
var (
	HeartRateRange = Range{Min: 60, Max: 100}
	SystolicRange  = Range{Min: 90, Max: 120}
	DiastolicRange = Range{Min: 60, Max: 80}
	OxygenRange    = Range{Min: 95, Max: 100}
)

// Contains reports whether v lies inside the band.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// StatusOf classifies v against the band.
func (r Range) StatusOf(v float64) Status {
	switch {
	case v < r.Min:
		return StatusLow
	case v > r.Max:
		return StatusHigh
	default:
		return StatusNormal
	}
}

// Assessment is one vital compared with its healthy band.
type Assessment struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Status Status  `json:"status"`
	Range
}

// RecordAssessment groups the assessments of one dataset row.
type RecordAssessment struct {
	Region string       `json:"region"`
	Area   string       `json:"area"`
	Vitals []Assessment `json:"vitals"`
}

// Assess compares every vital of r with its healthy band. Values are
// rounded to two decimals.
func Assess(r Record) RecordAssessment {
	check := func(name string, v float64, band Range) Assessment {
		return Assessment{Name: name, Value: common.Round(v, 2), Status: band.StatusOf(v), Range: band}
	}
	return RecordAssessment{
		Region: r.Region,
		Area:   r.Area,
		Vitals: []Assessment{
			check("heart_rate", r.HeartRate, HeartRateRange),
			check("blood_pressure_systolic", r.Systolic, SystolicRange),
			check("blood_pressure_diastolic", r.Diastolic, DiastolicRange),
			check("oxygen_level", r.Oxygen, OxygenRange),
		},
	}
}

// AssessRegion assesses every record stored for region.
func AssessRegion(ds Dataset, region string) ([]RecordAssessment, error) {
	rows, err := ds.ByRegion(common.NormalizeKey(region))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	out := make([]RecordAssessment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Assess(r))
	}
	return out, nil
}
