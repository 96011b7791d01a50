package lifeexp

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/i474232898/env-risk-correlator/internal/common"
	"github.com/i474232898/env-risk-correlator/internal/observability"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

// Scorer produces the two percentages the correlator combines.
type Scorer interface {
	Stress(region string) (float64, error)
	HealthRisk(region string) (float64, error)
}

// Correlator resolves region, area and baseline, scores the region and
// persists one report per call.
type Correlator struct {
	vitals    vitals.Dataset
	baselines BaselineTable
	scorer    Scorer
	reports   ReportStore

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCorrelator creates a Correlator. A nil clock means the real clock.
func NewCorrelator(ds vitals.Dataset, baselines BaselineTable, scorer Scorer, reports ReportStore, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Correlator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Correlator{
		vitals:    ds,
		baselines: baselines,
		scorer:    scorer,
		reports:   reports,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Correlate builds and stores the report for region. Unknown regions and
// areas return an error wrapping ErrNotFound and store nothing.
func (c *Correlator) Correlate(region string) (CorrelationReport, error) {
	region = common.NormalizeKey(region)

	area, err := vitals.AreaOf(c.vitals, region)
	if errors.Is(err, vitals.ErrNotFound) {
		return CorrelationReport{}, fmt.Errorf("%w: no area for region %q: %w", ErrNotFound, region, err)
	}
	if err != nil {
		return CorrelationReport{}, fmt.Errorf("resolve area: %w", err)
	}

	base, err := c.baselines.Baseline(area)
	if err != nil {
		return CorrelationReport{}, fmt.Errorf("baseline for %q: %w", area, err)
	}

	stress, err := c.scorer.Stress(region)
	if err != nil {
		return CorrelationReport{}, fmt.Errorf("environmental stress: %w", err)
	}
	risk, err := c.scorer.HealthRisk(region)
	if err != nil {
		return CorrelationReport{}, fmt.Errorf("health risk: %w", err)
	}

	est := Combine(base, stress, risk)
	report := CorrelationReport{
		ID:                        uuid.NewString(),
		GeneratedAt:               c.clock.Now().UTC(),
		Region:                    region,
		Area:                      area,
		BaseLifeExpectancy:        base,
		EnvironmentalStressPct:    stress,
		HealthRiskPct:             risk,
		PredictedChangePct:        est.ChangePct,
		PredictedChangeYears:      est.ChangeYears,
		PredictedLifeExpectancy:   est.Predicted,
		Impact:                    est.Impact,
		PollutionExceedsThreshold: stress > pollutionThresholdPct,
		VitalsElevated:            risk > vitalsElevatedPct,
	}

	if err := c.reports.Append(report); err != nil {
		return CorrelationReport{}, fmt.Errorf("persist report: %w", err)
	}

	c.metrics.Correlations.WithLabelValues(string(report.Impact)).Inc()
	c.logger.Info("correlation stored",
		"region", region,
		"area", area,
		"stress_pct", stress,
		"risk_pct", risk,
		"predicted_le", report.PredictedLifeExpectancy,
		"impact", report.Impact,
	)
	return report, nil
}

// Reports lists stored reports, optionally only those for region.
func (c *Correlator) Reports(region string) ([]CorrelationReport, error) {
	all, err := c.reports.All()
	if err != nil {
		return nil, err
	}
	region = common.NormalizeKey(region)
	if region == "" {
		return all, nil
	}
	out := make([]CorrelationReport, 0, len(all))
	for _, r := range all {
		if common.NormalizeKey(r.Region) == region {
			out = append(out, r)
		}
	}
	return out, nil
}
