package store

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/i474232898/env-risk-correlator/internal/air"
)

const readingsDataset = "pollution readings"

var readingsHeader = []string{"region", "time", "co", "no2", "o3", "pm2_5", "pm10", "so2", "aqi", "source"}

// CSVReadingStore is an append-only air.ReadingStore backed by a CSV file.
// Existing rows are indexed on open so dedup checks do not rescan the file.
// It assumes it is the only writer of the file.
type CSVReadingStore struct {
	path string

	mu  sync.RWMutex
	mem *MemoryReadingStore
}

// OpenCSVReadingStore loads the file at path when it exists.
func OpenCSVReadingStore(path string) (*CSVReadingStore, error) {
	t, err := loadCSV(path)
	if err != nil {
		return nil, err
	}

	mem := NewMemoryReadingStore()
	if len(t.header) > 0 {
		if err := t.require(readingsDataset, []string{"region", "city"}, []string{"time"}, []string{"aqi"}); err != nil {
			return nil, err
		}
		for _, row := range t.rows {
			r, err := parseReading(row)
			if err != nil {
				return nil, err
			}
			// Legacy files may already hold duplicates.
			mem.load(r)
		}
	}

	return &CSVReadingStore{path: path, mem: mem}, nil
}

func (s *CSVReadingStore) AppendIfAbsent(r air.PollutionReading) (bool, error) {
	r.Region = air.NormalizeRegion(r.Region)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mem.has(r.Key()) {
		return false, nil
	}
	if err := appendCSV(s.path, readingsHeader, formatReading(r)); err != nil {
		return false, fmt.Errorf("append %s: %w", s.path, err)
	}
	return s.mem.AppendIfAbsent(r)
}

func (s *CSVReadingStore) All() ([]air.PollutionReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.All()
}

func (s *CSVReadingStore) Latest(region string) (air.PollutionReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mem.Latest(region)
}

func parseReading(row csvRow) (air.PollutionReading, error) {
	r := air.PollutionReading{
		Region: air.NormalizeRegion(row.get("region", "city")),
		Time:   row.get("time"),
		Source: parseSource(row.get("source")),
	}

	aqi, err := parseFloat(readingsDataset, row, "aqi", row.get("aqi"))
	if err != nil {
		return air.PollutionReading{}, err
	}
	r.AQI = int(math.Round(aqi))

	for _, c := range []struct {
		column string
		dst    **float64
	}{
		{"co", &r.CO},
		{"no2", &r.NO2},
		{"o3", &r.O3},
		{"pm2_5", &r.PM25},
		{"pm10", &r.PM10},
		{"so2", &r.SO2},
	} {
		raw := row.get(c.column)
		if raw == "" {
			continue
		}
		v, err := parseFloat(readingsDataset, row, c.column, raw)
		if err != nil {
			return air.PollutionReading{}, err
		}
		*c.dst = air.Float(v)
	}
	return r, nil
}

// parseSource accepts the provider names older files were written with.
func parseSource(s string) air.Source {
	switch s {
	case "AQICN", string(air.SourcePrimary):
		return air.SourcePrimary
	case "OWM", string(air.SourceFallback):
		return air.SourceFallback
	default:
		return air.Source(s)
	}
}

func formatReading(r air.PollutionReading) []string {
	opt := func(v *float64) string {
		if v == nil {
			return ""
		}
		return formatFloat(*v)
	}
	return []string{
		r.Region,
		r.Time,
		opt(r.CO),
		opt(r.NO2),
		opt(r.O3),
		opt(r.PM25),
		opt(r.PM10),
		opt(r.SO2),
		strconv.Itoa(r.AQI),
		string(r.Source),
	}
}
