// Package app builds the dependency graph shared by the service and the CLI.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/air/providers"
	"github.com/i474232898/env-risk-correlator/internal/config"
	"github.com/i474232898/env-risk-correlator/internal/lifeexp"
	"github.com/i474232898/env-risk-correlator/internal/observability"
	"github.com/i474232898/env-risk-correlator/internal/risk"
	"github.com/i474232898/env-risk-correlator/internal/store"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

// App holds the wired components.
type App struct {
	Config  *config.AppConfig
	Logger  *slog.Logger
	Metrics *observability.Metrics

	Readings  air.ReadingStore
	Vitals    vitals.Dataset
	Baselines lifeexp.BaselineTable
	Reports   lifeexp.ReportStore

	Air        *air.Service
	Scorer     *risk.Scorer
	Correlator *lifeexp.Correlator
}

// New wires every component from cfg.
func New(cfg *config.AppConfig, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	readings, err := openReadings(cfg)
	if err != nil {
		return nil, fmt.Errorf("open reading store: %w", err)
	}

	ds := store.NewCSVVitalsDataset(cfg.VitalsPath)
	baselines := store.NewCSVBaselineTable(cfg.BaselinePath)
	reports := store.NewCSVReportStore(cfg.ReportsPath)

	primary, fallback := newProviders(cfg)
	scorer := risk.NewScorer(readings, ds)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Readings:   readings,
		Vitals:     ds,
		Baselines:  baselines,
		Reports:    reports,
		Air:        air.NewService(readings, primary, fallback, logger, metrics),
		Scorer:     scorer,
		Correlator: lifeexp.NewCorrelator(ds, baselines, scorer, reports, nil, logger, metrics),
	}, nil
}

func openReadings(cfg *config.AppConfig) (air.ReadingStore, error) {
	if cfg.ReadingsStore == config.StoreMemory {
		return store.NewMemoryReadingStore(), nil
	}
	return store.OpenCSVReadingStore(cfg.ReadingsPath)
}

func newProviders(cfg *config.AppConfig) (air.Provider, air.Provider) {
	// Shared HTTP client for outbound provider calls; per-call bounds come
	// from each adapter's context timeout.
	httpCfg := providers.HTTPClientConfig{
		Client:        &http.Client{},
		RatePerSecond: cfg.ProviderRatePerSecond,
		Burst:         cfg.ProviderBurst,
	}

	geocoders := providers.FirstGeocoder{providers.NewOpenWeatherGeocoder(httpCfg, cfg.OpenWeatherAPIKey)}
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey))
	}
	if cfg.OpenMeteoGeocoder {
		geocoders = append(geocoders, providers.NewOpenMeteoGeocoder(httpCfg))
	}

	var geocoder providers.Geocoder = geocoders
	if len(geocoders) == 1 {
		geocoder = geocoders[0]
	}
	geocoder = providers.NewCachedGeocoder(geocoder, cfg.GeocodeCacheTTL)

	primary := providers.NewAQICNProvider(httpCfg, cfg.AQICNToken, cfg.PrimaryTimeout)
	fallback := providers.NewOpenWeatherProvider(httpCfg, cfg.OpenWeatherAPIKey, geocoder, cfg.FallbackTimeout)
	return primary, fallback
}
