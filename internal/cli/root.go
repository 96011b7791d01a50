package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/i474232898/env-risk-correlator/internal/app"
	"github.com/i474232898/env-risk-correlator/internal/config"
	"github.com/i474232898/env-risk-correlator/internal/observability"
)

const version = "envrisk v0.1.0"

// root carries the state shared by every subcommand.
type root struct {
	cfgFile string
	v       *viper.Viper
	lookup  config.Lookup
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds a fresh command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.LookupEnv)
}

func newRootCmd(lookup config.Lookup) *cobra.Command {
	r := &root{v: viper.New(), lookup: lookup}

	cmd := &cobra.Command{
		Use:   "envrisk",
		Short: "Environmental risk correlation engine",
		Long: `envrisk ingests air-quality readings, scores environmental stress and
physiological risk for a region, and predicts an adjusted life expectancy
from a regional baseline.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (ENVRISK_*)
3. Config file (--config)
4. Plain environment variables and .env
5. Defaults`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return r.initConfig()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&r.cfgFile, "config", "", "YAML config file")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, text)")
	flags.String("readings-store", "", "reading store backend (csv, memory)")
	_ = r.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = r.v.BindPFlag("log_format", flags.Lookup("log-format"))
	_ = r.v.BindPFlag("readings_store", flags.Lookup("readings-store"))

	cmd.AddCommand(
		r.ingestCmd(),
		r.classifyCmd(),
		r.analyzeCmd(),
		r.measuresCmd(),
		r.vitalsCmd(),
		r.stressCmd(),
		r.riskCmd(),
		r.correlateCmd(),
		r.reportsCmd(),
		r.configCmd(),
		versionCmd(),
	)
	return cmd
}

// initConfig reads in config file and ENV variables
func (r *root) initConfig() error {
	config.LoadDotEnv()

	if r.cfgFile != "" {
		r.v.SetConfigFile(r.cfgFile)
		if err := r.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", r.cfgFile, err)
		}
	}

	// Read in environment variables that match ENVRISK_*
	r.v.SetEnvPrefix("ENVRISK")
	r.v.AutomaticEnv()
	return nil
}

// get resolves a configuration key through viper before the plain
// environment.
func (r *root) get(key string) (string, bool) {
	vk := strings.ToLower(key)
	if r.v.IsSet(vk) {
		switch val := r.v.Get(vk).(type) {
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			return strings.Join(parts, ","), true
		default:
			if s := r.v.GetString(vk); s != "" {
				return s, true
			}
		}
	}
	return r.lookup(key)
}

func (r *root) loadConfig() (*config.AppConfig, error) {
	return config.LoadFrom(r.get)
}

func (r *root) buildApp() (*app.App, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	lg := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	return app.New(cfg, lg, observability.NewMetricsWith(prometheus.NewRegistry()))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
