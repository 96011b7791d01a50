package air

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEstimator struct {
	trees int
	err   error
	got   PlantationFeatures
}

func (f *fakeEstimator) Estimate(ctx context.Context, features PlantationFeatures) (int, error) {
	f.got = features
	return f.trees, f.err
}

func texts(ms []Measure) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Text)
	}
	return out
}

func TestSuggestMeasures_PollutedReading(t *testing.T) {
	r := PollutionReading{
		PM25: Float(80),
		CO:   Float(250),
		SO2:  Float(45),
		NO2:  Float(25),
	}

	ms, err := SuggestMeasures(context.Background(), r, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Wear a mask while going outside",
		"Encourage plantation drives to reduce PM2.5",
		"Reduce vehicle use, promote public transport",
		"Control industrial emissions (SO2 beyond safe limit)",
		"Reduce traffic congestion (NO2 too high)",
	}, texts(ms))
}

func TestSuggestMeasures_CleanReading(t *testing.T) {
	r := PollutionReading{PM25: Float(15), CO: Float(199.9), SO2: Float(39), NO2: Float(24.9)}

	ms, err := SuggestMeasures(context.Background(), r, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"No mask required",
		"Air quality is excellent. Maintain greenery!",
	}, texts(ms))
}

func TestSuggestMeasures_NullComponentsSkipRules(t *testing.T) {
	ms, err := SuggestMeasures(context.Background(), PollutionReading{}, nil)
	require.NoError(t, err)

	require.Len(t, ms, 1)
	assert.Equal(t, MeasureMask, ms[0].Kind)
	assert.Equal(t, "No mask required", ms[0].Text)
}

func TestSuggestMeasures_Estimator(t *testing.T) {
	r := PollutionReading{PM25: Float(40), PM10: Float(60), CO: Float(1), NO2: Float(2), SO2: Float(3)}

	est := &fakeEstimator{trees: 120}
	ms, err := SuggestMeasures(context.Background(), r, est)
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, Measure{Kind: MeasurePlantation, Text: "Plantation requirement: 120 trees per sq km needed"}, ms[0])
	assert.Equal(t, PlantationFeatures{PM25: 40, PM10: 60, CO: 1, NO2: 2, SO2: 3, O3: 0}, est.got)

	ms, err = SuggestMeasures(context.Background(), r, &fakeEstimator{trees: 50})
	require.NoError(t, err)
	assert.Equal(t, "Plantation requirement: not urgent (within safe limits)", ms[0].Text)
}

func TestSuggestMeasures_EstimatorFailure(t *testing.T) {
	r := PollutionReading{PM25: Float(40)}

	ms, err := SuggestMeasures(context.Background(), r, &fakeEstimator{err: errors.New("model missing")})
	assert.ErrorIs(t, err, ErrEstimatorFailed)
	require.NotEmpty(t, ms)
	assert.Equal(t, MeasureMask, ms[0].Kind)
}
