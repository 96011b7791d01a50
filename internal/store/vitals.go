package store

import (
	"github.com/i474232898/env-risk-correlator/internal/common"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

const vitalsDataset = "vitals dataset"

// Column aliases: the first name is canonical, the rest are accepted from
// the regional averages export.
var (
	colRegion    = []string{"region", "city"}
	colArea      = []string{"area", "state"}
	colHeartRate = []string{"heart_rate", "avg_heart_rate"}
	colSystolic  = []string{"bp_sys", "avg_bp_sys", "blood_pressure_sys"}
	colDiastolic = []string{"bp_dia", "avg_bp_dia", "blood_pressure_dia"}
	colOxygen    = []string{"oxygen_level", "avg_oxygen_level"}
)

// CSVVitalsDataset is a read-only vitals.Dataset over a CSV file. The file
// is reparsed when it changes on disk.
type CSVVitalsDataset struct {
	snap *snapshot[map[string][]vitals.Record]
}

func NewCSVVitalsDataset(path string) *CSVVitalsDataset {
	return &CSVVitalsDataset{snap: &snapshot[map[string][]vitals.Record]{path: path, parse: parseVitals}}
}

func (d *CSVVitalsDataset) ByRegion(region string) ([]vitals.Record, error) {
	byRegion, err := d.snap.get()
	if err != nil {
		return nil, err
	}
	rows := byRegion[common.NormalizeKey(region)]
	if len(rows) == 0 {
		return nil, vitals.ErrNotFound
	}
	out := make([]vitals.Record, len(rows))
	copy(out, rows)
	return out, nil
}

func parseVitals(t csvTable) (map[string][]vitals.Record, error) {
	if err := t.require(vitalsDataset, colRegion, colArea, colHeartRate, colSystolic, colDiastolic, colOxygen); err != nil {
		return nil, err
	}

	out := make(map[string][]vitals.Record)
	for _, row := range t.rows {
		rec := vitals.Record{
			Region: common.NormalizeKey(row.get(colRegion...)),
			Area:   row.get(colArea...),
		}
		for _, c := range []struct {
			aliases []string
			dst     *float64
		}{
			{colHeartRate, &rec.HeartRate},
			{colSystolic, &rec.Systolic},
			{colDiastolic, &rec.Diastolic},
			{colOxygen, &rec.Oxygen},
		} {
			v, err := parseFloat(vitalsDataset, row, c.aliases[0], row.get(c.aliases...))
			if err != nil {
				return nil, err
			}
			*c.dst = v
		}
		out[rec.Region] = append(out[rec.Region], rec)
	}
	return out, nil
}
