package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/env-risk-correlator/internal/config"
	"github.com/i474232898/env-risk-correlator/internal/observability"
	"github.com/i474232898/env-risk-correlator/internal/store"
)

func testConfig(t *testing.T, readingsStore string) *config.AppConfig {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		switch key {
		case config.KeyReadingsStore:
			return readingsStore, true
		case config.KeyReadingsPath:
			return filepath.Join(dir, "pollution.csv"), true
		case config.KeyReportsPath:
			return filepath.Join(dir, "reports.csv"), true
		case config.KeyGoogleGeocoderAPIKey:
			return "g", true
		case config.KeyOpenMeteoGeocoder:
			return "true", true
		}
		return "", false
	})
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	for _, kind := range []string{config.StoreCSV, config.StoreMemory} {
		t.Run(kind, func(t *testing.T) {
			a, err := New(testConfig(t, kind), observability.DiscardLogger(), observability.NewMetricsForTesting())
			require.NoError(t, err)

			assert.NotNil(t, a.Air)
			assert.NotNil(t, a.Scorer)
			assert.NotNil(t, a.Correlator)

			switch kind {
			case config.StoreCSV:
				assert.IsType(t, &store.CSVReadingStore{}, a.Readings)
			case config.StoreMemory:
				assert.IsType(t, &store.MemoryReadingStore{}, a.Readings)
			}
		})
	}
}

func TestNewProviders(t *testing.T) {
	primary, fallback := newProviders(testConfig(t, config.StoreMemory))
	assert.Equal(t, "aqicn", primary.Name())
	assert.Equal(t, "openweathermap", fallback.Name())
}
