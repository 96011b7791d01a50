package vitals

import (
	"errors"

	"github.com/i474232898/env-risk-correlator/internal/common"
)

// ErrNotFound is returned when the dataset has no record for a region.
var ErrNotFound = errors.New("no vitals record for region")

// Record is one row of the regional vitals dataset.
type Record struct {
	Region    string  `json:"region"`
	Area      string  `json:"area"`
	HeartRate float64 `json:"heart_rate"`
	Systolic  float64 `json:"blood_pressure_systolic"`
	Diastolic float64 `json:"blood_pressure_diastolic"`
	Oxygen    float64 `json:"oxygen_level"`
}

// Dataset is the read-only vitals table. ByRegion returns the rows for a
// normalized region in storage order, or ErrNotFound.
type Dataset interface {
	ByRegion(region string) ([]Record, error)
}

// First returns the first stored record for region.
func First(ds Dataset, region string) (Record, error) {
	rows, err := ds.ByRegion(common.NormalizeKey(region))
	if err != nil {
		return Record{}, err
	}
	if len(rows) == 0 {
		return Record{}, ErrNotFound
	}
	return rows[0], nil
}

// AreaOf resolves the administrative area a region belongs to.
func AreaOf(ds Dataset, region string) (string, error) {
	r, err := First(ds, region)
	if err != nil {
		return "", err
	}
	return r.Area, nil
}
