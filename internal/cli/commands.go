package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/vitals"
)

func (r *root) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <region>...",
		Short: "Fetch and store the current air-quality reading for regions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			var failed int
			for _, region := range args {
				reading, err := a.Air.Ingest(cmd.Context(), region)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", region, err)
					continue
				}
				if err := printJSON(cmd.OutOrStdout(), reading); err != nil {
					return err
				}
			}
			if failed == len(args) {
				return air.ErrDataUnavailable
			}
			return nil
		},
	}
}

func (r *root) classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <aqi>",
		Short: "Print the health band of an AQI value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aqi, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("aqi must be an integer: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), air.Classify(aqi))
			return nil
		},
	}
}

func (r *root) analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <region>",
		Short: "Classify the latest stored reading of a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			analysis, err := a.Air.AnalyzeLatest(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), analysis)
		},
	}
}

func (r *root) measuresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "measures <region>",
		Short: "Suggest protective measures from the latest stored reading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			measures, err := a.Air.Measures(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			for _, m := range measures {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", m.Text)
			}
			return nil
		},
	}
}

func (r *root) vitalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vitals <region>",
		Short: "Compare regional vitals with healthy ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			assessments, err := vitals.AssessRegion(a.Vitals, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assessments)
		},
	}
}

func (r *root) stressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress <region>",
		Short: "Print the environmental stress percentage of a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			stress, err := a.Scorer.Stress(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f\n", stress)
			return nil
		},
	}
}

func (r *root) riskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "risk <region>",
		Short: "Print the health risk percentage of a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			hr, err := a.Scorer.HealthRisk(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f\n", hr)
			return nil
		},
	}
}

func (r *root) correlateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "correlate <region>",
		Short: "Predict the adjusted life expectancy of a region and store the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			report, err := a.Correlator.Correlate(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func (r *root) reportsCmd() *cobra.Command {
	var region string
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List stored correlation reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buildApp()
			if err != nil {
				return err
			}
			reports, err := a.Correlator.Reports(region)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), reports)
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "only list reports for this region")
	return cmd
}
