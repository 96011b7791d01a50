package store

import (
	"fmt"

	"github.com/i474232898/env-risk-correlator/internal/common"
	"github.com/i474232898/env-risk-correlator/internal/lifeexp"
)

const baselineDataset = "life expectancy table"

var (
	colTotal  = []string{"total"}
	colMale   = []string{"total_male", "male"}
	colFemale = []string{"total_female", "female"}
)

// CSVBaselineTable is a read-only lifeexp.BaselineTable over a CSV file
// keyed by area. A combined total column wins over gendered columns, which
// are averaged.
type CSVBaselineTable struct {
	snap *snapshot[map[string]float64]
}

func NewCSVBaselineTable(path string) *CSVBaselineTable {
	return &CSVBaselineTable{snap: &snapshot[map[string]float64]{path: path, parse: parseBaselines}}
}

func (b *CSVBaselineTable) Baseline(area string) (float64, error) {
	byArea, err := b.snap.get()
	if err != nil {
		return 0, err
	}
	v, ok := byArea[common.NormalizeKey(area)]
	if !ok {
		return 0, fmt.Errorf("%w: area %q", lifeexp.ErrNotFound, area)
	}
	return v, nil
}

func parseBaselines(t csvTable) (map[string]float64, error) {
	if err := t.require(baselineDataset, colArea); err != nil {
		return nil, err
	}

	var value func(csvRow) (float64, error)
	switch {
	case t.has(colTotal...):
		value = func(row csvRow) (float64, error) {
			return parseFloat(baselineDataset, row, "total", row.get(colTotal...))
		}
	case t.has(colMale...) && t.has(colFemale...):
		value = func(row csvRow) (float64, error) {
			m, err := parseFloat(baselineDataset, row, colMale[0], row.get(colMale...))
			if err != nil {
				return 0, err
			}
			f, err := parseFloat(baselineDataset, row, colFemale[0], row.get(colFemale...))
			if err != nil {
				return 0, err
			}
			return (m + f) / 2, nil
		}
	default:
		return nil, &SchemaError{Dataset: baselineDataset, Missing: []string{"total", "total_male+total_female"}}
	}

	out := make(map[string]float64, len(t.rows))
	for _, row := range t.rows {
		key := common.NormalizeKey(row.get(colArea...))
		if _, dup := out[key]; dup {
			continue
		}
		v, err := value(row)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}
