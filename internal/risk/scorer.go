package risk

import (
	"errors"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

// Scorer reads the latest stored data for a region and scores it. A region
// without data scores 0.
type Scorer struct {
	readings air.ReadingStore
	vitals   vitals.Dataset
}

func NewScorer(readings air.ReadingStore, ds vitals.Dataset) *Scorer {
	return &Scorer{readings: readings, vitals: ds}
}

// Stress scores the most recently stored reading for region.
func (s *Scorer) Stress(region string) (float64, error) {
	r, err := s.readings.Latest(air.NormalizeRegion(region))
	if errors.Is(err, air.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return Stress(r)
}

// HealthRisk scores the first vitals record for region.
func (s *Scorer) HealthRisk(region string) (float64, error) {
	r, err := vitals.First(s.vitals, region)
	if errors.Is(err, vitals.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return HealthRisk(r), nil
}
