package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/lifeexp"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sample(region, ts string) air.PollutionReading {
	return air.PollutionReading{
		Region: region,
		Time:   ts,
		PM25:   air.Float(40.12),
		PM10:   air.Float(55),
		NO2:    air.Float(25.5),
		AQI:    152,
		Source: air.SourcePrimary,
	}
}

func TestMemoryReadingStore(t *testing.T) {
	s := NewMemoryReadingStore()

	_, err := s.Latest("delhi")
	assert.ErrorIs(t, err, air.ErrNotFound)

	ok, err := s.AppendIfAbsent(sample("Delhi", "t1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AppendIfAbsent(sample(" delhi ", "t1"))
	require.NoError(t, err)
	assert.False(t, ok, "same region and time is a duplicate")

	ok, err = s.AppendIfAbsent(sample("delhi", "t2"))
	require.NoError(t, err)
	assert.True(t, ok)

	latest, err := s.Latest("DELHI")
	require.NoError(t, err)
	assert.Equal(t, "t2", latest.Time)

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCSVReadingStore_CreatesAndDedups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "pollution_data.csv")

	s, err := OpenCSVReadingStore(path)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := s.AppendIfAbsent(sample("delhi", "2024-03-01 10:00:00"))
		require.NoError(t, err)
	}
	ok, err := s.AppendIfAbsent(sample("pune", "2024-03-01 10:00:00"))
	require.NoError(t, err)
	assert.True(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "region,time,co,no2,o3,pm2_5,pm10,so2,aqi,source", lines[0])
	assert.Equal(t, "delhi,2024-03-01 10:00:00,,25.5,,40.12,55,,152,PRIMARY", lines[1])
}

func TestCSVReadingStore_ReopenKeepsIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pollution_data.csv")

	s, err := OpenCSVReadingStore(path)
	require.NoError(t, err)
	_, err = s.AppendIfAbsent(sample("delhi", "t1"))
	require.NoError(t, err)

	reopened, err := OpenCSVReadingStore(path)
	require.NoError(t, err)

	ok, err := reopened.AppendIfAbsent(sample("delhi", "t1"))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := reopened.Latest("delhi")
	require.NoError(t, err)
	assert.Nil(t, got.CO)
	require.NotNil(t, got.PM25)
	assert.Equal(t, 40.12, *got.PM25)
	assert.Equal(t, air.SourcePrimary, got.Source)
}

func TestCSVReadingStore_LegacyFile(t *testing.T) {
	path := writeFile(t, "pollution_data.csv", "city,time,co,no2,o3,pm2_5,pm10,so2,aqi,source\n"+
		"Delhi,2024-01-01 10:00:00,1.2,30,10,120,150,,180.0,AQICN\n"+
		"delhi,2024-01-01 11:00:00,201.99,25.5,68.35,40.12,55,3,160,OWM\n")

	s, err := OpenCSVReadingStore(path)
	require.NoError(t, err)

	got, err := s.Latest("delhi")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 11:00:00", got.Time)
	assert.Equal(t, 160, got.AQI)
	assert.Equal(t, air.SourceFallback, got.Source)

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, all[0].SO2)
	assert.Equal(t, 180, all[0].AQI)
}

func TestCSVReadingStore_LegacyDuplicatesFollowFileOrder(t *testing.T) {
	path := writeFile(t, "pollution_data.csv", "city,time,aqi,source\n"+
		"delhi,2024-01-01 10:00:00,180,AQICN\n"+
		"delhi,2024-01-01 11:00:00,160,OWM\n"+
		"delhi,2024-01-01 10:00:00,175,AQICN\n")

	s, err := OpenCSVReadingStore(path)
	require.NoError(t, err)

	all, err := s.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := s.Latest("delhi")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01 10:00:00", got.Time)
	assert.Equal(t, 180, got.AQI)

	appended, err := s.AppendIfAbsent(sample("delhi", "2024-01-01 10:00:00"))
	require.NoError(t, err)
	assert.False(t, appended)
}

func TestCSVReadingStore_AppendAfterUnterminatedLine(t *testing.T) {
	path := writeFile(t, "pollution_data.csv", "region,time,co,no2,o3,pm2_5,pm10,so2,aqi,source\n"+
		"delhi,2024-01-01 10:00:00,,,,,,,180,PRIMARY")

	s, err := OpenCSVReadingStore(path)
	require.NoError(t, err)
	appended, err := s.AppendIfAbsent(sample("delhi", "2024-01-01 11:00:00"))
	require.NoError(t, err)
	require.True(t, appended)

	reopened, err := OpenCSVReadingStore(path)
	require.NoError(t, err)
	all, err := reopened.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 180, all[0].AQI)
	assert.Equal(t, "2024-01-01 11:00:00", all[1].Time)
	assert.Equal(t, 152, all[1].AQI)
}

func TestCSVReadingStore_SchemaMismatch(t *testing.T) {
	path := writeFile(t, "pollution_data.csv", "place,when\nx,y\n")

	_, err := OpenCSVReadingStore(path)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"region", "time", "aqi"}, schemaErr.Missing)
}

const vitalsCSV = `city,state,avg_heart_rate,avg_bp_sys,avg_bp_dia,avg_oxygen_level
 Pune ,Maharashtra,72,118,76,97
pune,Maharashtra,110,140,95,90
Delhi,Delhi,80,125,85,94
`

func TestCSVVitalsDataset(t *testing.T) {
	ds := NewCSVVitalsDataset(writeFile(t, "health.csv", vitalsCSV))

	rows, err := ds.ByRegion("PUNE")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, vitals.Record{Region: "pune", Area: "Maharashtra", HeartRate: 72, Systolic: 118, Diastolic: 76, Oxygen: 97}, rows[0])

	area, err := vitals.AreaOf(ds, "delhi")
	require.NoError(t, err)
	assert.Equal(t, "Delhi", area)

	_, err = ds.ByRegion("goa")
	assert.ErrorIs(t, err, vitals.ErrNotFound)
}

func TestCSVVitalsDataset_CanonicalColumns(t *testing.T) {
	ds := NewCSVVitalsDataset(writeFile(t, "health.csv",
		"region,area,heart_rate,bp_sys,bp_dia,oxygen_level\nmumbai,Maharashtra,65,100,70,99\n"))

	r, err := vitals.First(ds, "mumbai")
	require.NoError(t, err)
	assert.Equal(t, 99.0, r.Oxygen)
}

func TestCSVVitalsDataset_SchemaMismatch(t *testing.T) {
	ds := NewCSVVitalsDataset(writeFile(t, "health.csv", "city,state,avg_heart_rate\npune,MH,70\n"))

	_, err := ds.ByRegion("pune")
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"bp_sys", "bp_dia", "oxygen_level"}, schemaErr.Missing)
}

func TestCSVVitalsDataset_RejectsNonFinite(t *testing.T) {
	for _, value := range []string{"NaN", "Inf", "-inf"} {
		ds := NewCSVVitalsDataset(writeFile(t, "health.csv",
			"region,area,heart_rate,bp_sys,bp_dia,oxygen_level\npune,Maharashtra,"+value+",118,76,97\n"))

		_, err := ds.ByRegion("pune")
		require.Error(t, err, value)
		assert.ErrorIs(t, err, errNotFinite)
		assert.Contains(t, err.Error(), "line 2")
	}
}

func TestCSVVitalsDataset_MissingFile(t *testing.T) {
	ds := NewCSVVitalsDataset(filepath.Join(t.TempDir(), "absent.csv"))

	_, err := ds.ByRegion("pune")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCSVBaselineTable_Total(t *testing.T) {
	b := NewCSVBaselineTable(writeFile(t, "le.csv", "State,Total,Total_Male,Total_Female\nMaharashtra,72.5,70,75\n"))

	v, err := b.Baseline(" maharashtra ")
	require.NoError(t, err)
	assert.Equal(t, 72.5, v)

	_, err = b.Baseline("Kerala")
	assert.ErrorIs(t, err, lifeexp.ErrNotFound)
}

func TestCSVBaselineTable_GenderedAverage(t *testing.T) {
	b := NewCSVBaselineTable(writeFile(t, "le.csv", "state,male,female\nDelhi,68.0,72.0\n"))

	v, err := b.Baseline("Delhi")
	require.NoError(t, err)
	assert.Equal(t, 70.0, v)
}

func TestCSVBaselineTable_NoValueColumn(t *testing.T) {
	b := NewCSVBaselineTable(writeFile(t, "le.csv", "state,rural\nDelhi,68\n"))

	_, err := b.Baseline("Delhi")
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Error(), "total")
}

func TestCSVBaselineTable_NoAreaColumn(t *testing.T) {
	b := NewCSVBaselineTable(writeFile(t, "le.csv", "region,total\nDelhi,68\n"))

	_, err := b.Baseline("Delhi")
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"area"}, schemaErr.Missing)
}

func TestCSVReportStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "le_correlation_report.csv")
	s := NewCSVReportStore(path)

	empty, err := s.All()
	require.NoError(t, err)
	assert.Empty(t, empty)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	report := lifeexp.CorrelationReport{
		ID:                        "r-1",
		GeneratedAt:               at,
		Region:                    "pune",
		Area:                      "Maharashtra",
		BaseLifeExpectancy:        70,
		EnvironmentalStressPct:    41.9,
		PredictedChangePct:        10.5,
		PredictedChangeYears:      7.3,
		PredictedLifeExpectancy:   62.7,
		Impact:                    lifeexp.ImpactModerate,
		PollutionExceedsThreshold: true,
	}
	require.NoError(t, s.Append(report))
	require.NoError(t, s.Append(report))

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2, "reports are never deduplicated")
	assert.Equal(t, report, all[0])
}
