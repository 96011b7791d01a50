package air_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/observability"
	"github.com/i474232898/env-risk-correlator/internal/store"
)

type stubProvider struct {
	name   string
	result air.FetchResult
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(ctx context.Context, region string) air.FetchResult {
	s.calls++
	res := s.result
	if res.OK() {
		res.Reading.Region = region
	}
	return res
}

func reading(ts string, aqi int, src air.Source) air.PollutionReading {
	return air.PollutionReading{Time: ts, AQI: aqi, PM25: air.Float(12), Source: src}
}

func newService(primary, fallback air.Provider) (*air.Service, *store.MemoryReadingStore, *observability.Metrics) {
	st := store.NewMemoryReadingStore()
	m := observability.NewMetricsForTesting()
	return air.NewService(st, primary, fallback, observability.DiscardLogger(), m), st, m
}

func TestService_Ingest_Primary(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Available(reading("2024-01-01 10:00:00", 42, air.SourcePrimary))}
	fallback := &stubProvider{name: "owm", result: air.Available(reading("x", 1, air.SourceFallback))}
	svc, st, m := newService(primary, fallback)

	got, err := svc.Ingest(context.Background(), "  Delhi ")
	require.NoError(t, err)

	assert.Equal(t, "delhi", got.Region)
	assert.Equal(t, air.SourcePrimary, got.Source)
	assert.Zero(t, fallback.calls, "fallback must not be tried after a primary success")

	rows, err := st.All()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("primary")))
}

func TestService_Ingest_FallsBack(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Unavailable(air.ReasonStatusNotOK, errors.New("unknown station"))}
	fallback := &stubProvider{name: "openweathermap", result: air.Available(reading("2024-01-01 11:00:00", 120, air.SourceFallback))}
	svc, _, m := newService(primary, fallback)

	got, err := svc.Ingest(context.Background(), "pune")
	require.NoError(t, err)

	assert.Equal(t, air.SourceFallback, got.Source)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderUnavailable.WithLabelValues("aqicn", "status_not_ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("fallback")))
}

func TestService_Ingest_BothUnavailable(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Unavailable(air.ReasonTimeout, context.DeadlineExceeded)}
	fallback := &stubProvider{name: "openweathermap", result: air.Unavailable(air.ReasonGeocodeEmpty, nil)}
	svc, st, m := newService(primary, fallback)

	_, err := svc.Ingest(context.Background(), "atlantis")
	assert.ErrorIs(t, err, air.ErrDataUnavailable)

	rows, err := st.All()
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Ingestions.WithLabelValues("none")))
}

func TestService_Ingest_NilFallback(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Unavailable(air.ReasonTransport, errors.New("refused"))}
	svc, _, _ := newService(primary, nil)

	_, err := svc.Ingest(context.Background(), "delhi")
	assert.ErrorIs(t, err, air.ErrDataUnavailable)
}

func TestService_Ingest_Idempotent(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Available(reading("2024-01-01 10:00:00", 42, air.SourcePrimary))}
	svc, st, m := newService(primary, nil)

	for i := 0; i < 2; i++ {
		_, err := svc.Ingest(context.Background(), "Delhi")
		require.NoError(t, err)
	}

	rows, err := st.All()
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReadingsAppended))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReadingsDuplicate))
}

func TestService_Ingest_EmptyRegion(t *testing.T) {
	primary := &stubProvider{name: "aqicn"}
	svc, _, _ := newService(primary, nil)

	_, err := svc.Ingest(context.Background(), "   ")
	assert.Error(t, err)
	assert.Zero(t, primary.calls)
}

func TestService_AnalyzeLatest(t *testing.T) {
	svc, st, _ := newService(nil, nil)

	_, err := svc.AnalyzeLatest("delhi")
	assert.ErrorIs(t, err, air.ErrNotFound)

	first := reading("2024-01-01 10:00:00", 42, air.SourcePrimary)
	first.Region = "delhi"
	second := reading("2024-01-01 11:00:00", 175, air.SourceFallback)
	second.Region = "delhi"
	for _, r := range []air.PollutionReading{first, second} {
		_, err := st.AppendIfAbsent(r)
		require.NoError(t, err)
	}

	a, err := svc.AnalyzeLatest(" DELHI")
	require.NoError(t, err)
	assert.Equal(t, air.Analysis{
		Region: "delhi",
		Time:   "2024-01-01 11:00:00",
		AQI:    175,
		Band:   air.BandUnhealthy,
		Source: air.SourceFallback,
	}, a)
}

type failingEstimator struct{}

func (failingEstimator) Estimate(ctx context.Context, f air.PlantationFeatures) (int, error) {
	return 0, errors.New("no model")
}

func TestService_Measures(t *testing.T) {
	svc, st, _ := newService(nil, nil)

	_, err := svc.Measures(context.Background(), "delhi", nil)
	assert.ErrorIs(t, err, air.ErrNotFound)

	r := reading("2024-01-01 10:00:00", 42, air.SourcePrimary)
	r.Region = "delhi"
	_, err = st.AppendIfAbsent(r)
	require.NoError(t, err)

	ms, err := svc.Measures(context.Background(), "delhi", failingEstimator{})
	require.NoError(t, err, "estimator failures are logged, not returned")
	assert.NotEmpty(t, ms)
}

func TestService_IngestAll(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Available(reading("2024-01-01 10:00:00", 42, air.SourcePrimary))}
	svc, st, _ := newService(primary, nil)

	n := svc.IngestAll(context.Background(), []string{"delhi", " ", "pune"})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, primary.calls)

	rows, err := st.All()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestService_IngestAll_StopsOnCancel(t *testing.T) {
	primary := &stubProvider{name: "aqicn", result: air.Available(reading("t", 1, air.SourcePrimary))}
	svc, _, _ := newService(primary, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Zero(t, svc.IngestAll(ctx, []string{"delhi", "pune"}))
	assert.Zero(t, primary.calls)
}
