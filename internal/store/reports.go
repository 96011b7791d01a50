package store

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/i474232898/env-risk-correlator/internal/lifeexp"
)

const reportsDataset = "correlation reports"

var reportsHeader = []string{
	"region",
	"area",
	"base_life_expectancy",
	"environmental_stress_pct",
	"health_risk_pct",
	"predicted_change_pct",
	"predicted_life_expectancy",
	"predicted_change_years",
	"impact",
	"pollution_exceeds_threshold",
	"vitals_elevated",
	"id",
	"generated_at",
}

// CSVReportStore is an append-only lifeexp.ReportStore backed by a CSV file.
type CSVReportStore struct {
	path string
	mu   sync.Mutex
}

func NewCSVReportStore(path string) *CSVReportStore {
	return &CSVReportStore{path: path}
}

func (s *CSVReportStore) Append(r lifeexp.CorrelationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := []string{
		r.Region,
		r.Area,
		formatFloat(r.BaseLifeExpectancy),
		formatFloat(r.EnvironmentalStressPct),
		formatFloat(r.HealthRiskPct),
		formatFloat(r.PredictedChangePct),
		formatFloat(r.PredictedLifeExpectancy),
		formatFloat(r.PredictedChangeYears),
		string(r.Impact),
		strconv.FormatBool(r.PollutionExceedsThreshold),
		strconv.FormatBool(r.VitalsElevated),
		r.ID,
		r.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if err := appendCSV(s.path, reportsHeader, record); err != nil {
		return fmt.Errorf("append %s: %w", s.path, err)
	}
	return nil
}

func (s *CSVReportStore) All() ([]lifeexp.CorrelationReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := loadCSV(s.path)
	if err != nil {
		return nil, err
	}
	if len(t.header) == 0 {
		return nil, nil
	}
	if err := t.require(reportsDataset, []string{"region"}, []string{"base_life_expectancy"}, []string{"predicted_life_expectancy"}); err != nil {
		return nil, err
	}

	out := make([]lifeexp.CorrelationReport, 0, len(t.rows))
	for _, row := range t.rows {
		r := lifeexp.CorrelationReport{
			ID:     row.get("id"),
			Region: row.get("region"),
			Area:   row.get("area"),
			Impact: lifeexp.Impact(row.get("impact")),
		}
		for _, c := range []struct {
			column string
			dst    *float64
		}{
			{"base_life_expectancy", &r.BaseLifeExpectancy},
			{"environmental_stress_pct", &r.EnvironmentalStressPct},
			{"health_risk_pct", &r.HealthRiskPct},
			{"predicted_change_pct", &r.PredictedChangePct},
			{"predicted_life_expectancy", &r.PredictedLifeExpectancy},
			{"predicted_change_years", &r.PredictedChangeYears},
		} {
			raw := row.get(c.column)
			if raw == "" {
				continue
			}
			v, err := parseFloat(reportsDataset, row, c.column, raw)
			if err != nil {
				return nil, err
			}
			*c.dst = v
		}
		r.PollutionExceedsThreshold, _ = strconv.ParseBool(row.get("pollution_exceeds_threshold"))
		r.VitalsElevated, _ = strconv.ParseBool(row.get("vitals_elevated"))
		if ts := row.get("generated_at"); ts != "" {
			if at, err := time.Parse(time.RFC3339, ts); err == nil {
				r.GeneratedAt = at
			}
		}
		out = append(out, r)
	}
	return out, nil
}
