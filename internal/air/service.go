package air

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i474232898/env-risk-correlator/internal/observability"
)

// Service is the ingestion gateway: it tries the primary provider, falls
// back to the secondary one, and persists the first reading obtained.
type Service struct {
	store    ReadingStore
	primary  Provider
	fallback Provider
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService creates a new Service. fallback may be nil.
func NewService(store ReadingStore, primary, fallback Provider, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		store:    store,
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		metrics:  metrics,
	}
}

// Ingest fetches the current reading for region and appends it to the store
// unless a row with the same (region, time) already exists. It returns
// ErrDataUnavailable when no provider produced a reading.
func (s *Service) Ingest(ctx context.Context, region string) (PollutionReading, error) {
	region = NormalizeRegion(region)
	if region == "" {
		return PollutionReading{}, fmt.Errorf("region is required")
	}

	reading, ok := s.fetch(ctx, region)
	if !ok {
		s.metrics.Ingestions.WithLabelValues("none").Inc()
		s.logger.Warn("no air quality data from any provider", "region", region)
		return PollutionReading{}, ErrDataUnavailable
	}
	s.metrics.Ingestions.WithLabelValues(sourceLabel(reading.Source)).Inc()

	appended, err := s.store.AppendIfAbsent(reading)
	if err != nil {
		return PollutionReading{}, fmt.Errorf("persist reading: %w", err)
	}
	if appended {
		s.metrics.ReadingsAppended.Inc()
		s.logger.Info("reading stored", "region", region, "time", reading.Time, "source", reading.Source, "aqi", reading.AQI)
	} else {
		s.metrics.ReadingsDuplicate.Inc()
		s.logger.Debug("reading already stored", "region", region, "time", reading.Time)
	}

	return reading, nil
}

// IngestAll ingests regions one after another and returns how many
// produced a reading. Failures are logged and do not stop the batch.
func (s *Service) IngestAll(ctx context.Context, regions []string) int {
	ok := 0
	for _, region := range regions {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.Ingest(ctx, region); err != nil {
			s.logger.Error("ingestion failed", "region", region, "error", err)
			continue
		}
		ok++
	}
	return ok
}

func (s *Service) fetch(ctx context.Context, region string) (PollutionReading, bool) {
	for _, p := range []Provider{s.primary, s.fallback} {
		if p == nil {
			continue
		}
		res := p.Fetch(ctx, region)
		if res.OK() {
			return res.Reading, true
		}
		s.metrics.ProviderUnavailable.WithLabelValues(p.Name(), string(res.Reason)).Inc()
		s.logger.Warn("provider unavailable", "provider", p.Name(), "region", region, "reason", res.Reason, "error", res.Cause)
	}
	return PollutionReading{}, false
}

// Latest returns the most recently stored reading for region.
func (s *Service) Latest(region string) (PollutionReading, error) {
	return s.store.Latest(NormalizeRegion(region))
}

// AnalyzeLatest classifies the most recently stored reading for region.
func (s *Service) AnalyzeLatest(region string) (Analysis, error) {
	r, err := s.Latest(region)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		Region: r.Region,
		Time:   r.Time,
		AQI:    r.AQI,
		Band:   Classify(r.AQI),
		Source: r.Source,
	}, nil
}

// Measures suggests protective measures from the latest stored reading.
func (s *Service) Measures(ctx context.Context, region string, estimator TreeEstimator) ([]Measure, error) {
	r, err := s.Latest(region)
	if err != nil {
		return nil, err
	}
	measures, err := SuggestMeasures(ctx, r, estimator)
	if err != nil {
		// Rule-based measures are still returned without the plantation line.
		s.logger.Warn("tree estimator failed", "region", r.Region, "error", err)
	}
	return measures, nil
}

func sourceLabel(src Source) string {
	switch src {
	case SourcePrimary:
		return "primary"
	case SourceFallback:
		return "fallback"
	default:
		return "unknown"
	}
}
