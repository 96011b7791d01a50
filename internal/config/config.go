package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	KeyAQICNToken           = "AQICN_TOKEN"
	KeyOpenWeatherAPIKey    = "OPENWEATHER_API_KEY"
	KeyGoogleGeocoderAPIKey = "GOOGLE_GEOCODER_API_KEY"
	KeyOpenMeteoGeocoder    = "OPENMETEO_GEOCODER"
	KeyPrimaryTimeout       = "PRIMARY_TIMEOUT"
	KeyFallbackTimeout      = "FALLBACK_TIMEOUT"
	KeyProviderRate         = "PROVIDER_RATE_PER_SECOND"
	KeyProviderBurst        = "PROVIDER_BURST"
	KeyGeocodeCacheTTL      = "GEOCODE_CACHE_TTL"
	KeyReadingsStore        = "READINGS_STORE"
	KeyReadingsPath         = "READINGS_PATH"
	KeyVitalsPath           = "VITALS_PATH"
	KeyBaselinePath         = "BASELINE_PATH"
	KeyReportsPath          = "REPORTS_PATH"
	KeyFetchInterval        = "FETCH_INTERVAL"
	KeyTrackRegions         = "TRACK_REGIONS"
	KeyPort                 = "PORT"
	KeyLogLevel             = "LOG_LEVEL"
	KeyLogFormat            = "LOG_FORMAT"
)

// Keys lists every recognized key.
var Keys = []string{
	KeyAQICNToken, KeyOpenWeatherAPIKey, KeyGoogleGeocoderAPIKey, KeyOpenMeteoGeocoder,
	KeyPrimaryTimeout, KeyFallbackTimeout, KeyProviderRate, KeyProviderBurst, KeyGeocodeCacheTTL,
	KeyReadingsStore, KeyReadingsPath, KeyVitalsPath, KeyBaselinePath, KeyReportsPath,
	KeyFetchInterval, KeyTrackRegions, KeyPort, KeyLogLevel, KeyLogFormat,
}

const (
	StoreCSV    = "csv"
	StoreMemory = "memory"

	maxTimeout = 60 * time.Second
)

type AppConfig struct {
	AQICNToken           string `yaml:"aqicn_token"`
	OpenWeatherAPIKey    string `yaml:"openweather_api_key"`
	GoogleGeocoderAPIKey string `yaml:"google_geocoder_api_key"`
	OpenMeteoGeocoder    bool   `yaml:"openmeteo_geocoder"`

	// Per-call bounds for the primary and fallback providers.
	PrimaryTimeout  time.Duration `yaml:"primary_timeout"`
	FallbackTimeout time.Duration `yaml:"fallback_timeout"`

	ProviderRatePerSecond float64       `yaml:"provider_rate_per_second"`
	ProviderBurst         int           `yaml:"provider_burst"`
	GeocodeCacheTTL       time.Duration `yaml:"geocode_cache_ttl"`

	ReadingsStore string `yaml:"readings_store"`
	ReadingsPath  string `yaml:"readings_path"`
	VitalsPath    string `yaml:"vitals_path"`
	BaselinePath  string `yaml:"baseline_path"`
	ReportsPath   string `yaml:"reports_path"`

	// FetchInterval of zero disables periodic ingestion.
	FetchInterval time.Duration `yaml:"fetch_interval"`
	TrackRegions  []string      `yaml:"track_regions"`

	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Lookup returns the raw value of a key and whether it is set.
type Lookup func(key string) (string, bool)

// Load reads a .env file when present and then the process environment.
func Load() (*AppConfig, error) {
	LoadDotEnv()
	return LoadFrom(os.LookupEnv)
}

// LoadDotEnv copies a .env file from the working directory into the
// process environment without overriding variables already set.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}
}

// LoadFrom builds the configuration from lookup, applying defaults.
func LoadFrom(lookup Lookup) (*AppConfig, error) {
	e := env{lookup: lookup}
	cfg := &AppConfig{
		AQICNToken:           e.getenvDefault(KeyAQICNToken, ""),
		OpenWeatherAPIKey:    e.getenvDefault(KeyOpenWeatherAPIKey, ""),
		GoogleGeocoderAPIKey: e.getenvDefault(KeyGoogleGeocoderAPIKey, ""),
		OpenMeteoGeocoder:    e.getenvBool(KeyOpenMeteoGeocoder, false),

		PrimaryTimeout:        e.getenvDuration(KeyPrimaryTimeout, 15*time.Second),
		FallbackTimeout:       e.getenvDuration(KeyFallbackTimeout, 10*time.Second),
		ProviderRatePerSecond: e.getenvFloat(KeyProviderRate, 1),
		ProviderBurst:         e.getenvInt(KeyProviderBurst, 2),
		GeocodeCacheTTL:       e.getenvDuration(KeyGeocodeCacheTTL, 24*time.Hour),

		ReadingsStore: strings.ToLower(e.getenvDefault(KeyReadingsStore, StoreCSV)),
		ReadingsPath:  e.getenvDefault(KeyReadingsPath, "data/pollution_data.csv"),
		VitalsPath:    e.getenvDefault(KeyVitalsPath, "data/health_dataset.csv"),
		BaselinePath:  e.getenvDefault(KeyBaselinePath, "data/state_life_expectancy.csv"),
		ReportsPath:   e.getenvDefault(KeyReportsPath, "reports/le_correlation_report.csv"),

		FetchInterval: e.getenvDuration(KeyFetchInterval, 0),
		TrackRegions:  splitList(e.getenvDefault(KeyTrackRegions, "")),

		Port:      e.getenvDefault(KeyPort, "8080"),
		LogLevel:  e.getenvDefault(KeyLogLevel, "info"),
		LogFormat: e.getenvDefault(KeyLogFormat, "json"),
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *AppConfig) Validate() error {
	for key, d := range map[string]time.Duration{
		KeyPrimaryTimeout:  c.PrimaryTimeout,
		KeyFallbackTimeout: c.FallbackTimeout,
	} {
		if d <= 0 || d > maxTimeout {
			return fmt.Errorf("invalid %s: %s must be in (0, %s]", key, d, maxTimeout)
		}
	}
	if c.ProviderRatePerSecond < 0 {
		return fmt.Errorf("invalid %s: must not be negative", KeyProviderRate)
	}
	if c.GeocodeCacheTTL <= 0 {
		return fmt.Errorf("invalid %s: must be positive", KeyGeocodeCacheTTL)
	}
	if c.FetchInterval < 0 {
		return fmt.Errorf("invalid %s: must not be negative", KeyFetchInterval)
	}
	switch c.ReadingsStore {
	case StoreCSV, StoreMemory:
	default:
		return fmt.Errorf("invalid %s: %q is not one of csv, memory", KeyReadingsStore, c.ReadingsStore)
	}
	return nil
}

// Redacted returns a copy with secrets masked, for display.
func (c AppConfig) Redacted() AppConfig {
	c.AQICNToken = redact(c.AQICNToken)
	c.OpenWeatherAPIKey = redact(c.OpenWeatherAPIKey)
	c.GoogleGeocoderAPIKey = redact(c.GoogleGeocoderAPIKey)
	return c
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// env records the first parse failure so Load can report it by key.
type env struct {
	lookup Lookup
	err    error
}

func (e *env) getenvDefault(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *env) getenvInt(key string, def int) int {
	v := e.getenvDefault(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return n
}

func (e *env) getenvFloat(key string, def float64) float64 {
	v := e.getenvDefault(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return f
}

func (e *env) getenvBool(key string, def bool) bool {
	v := e.getenvDefault(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return b
}

func (e *env) getenvDuration(key string, def time.Duration) time.Duration {
	v := e.getenvDefault(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, err)
		return def
	}
	return d
}

func (e *env) fail(key string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}
