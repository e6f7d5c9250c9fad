package commands

import (
	"covidcurve/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	runWaves    *[]string
	runFrom     *string
	runTo       *string
	runOut      *string
	runSource   *string
	runNoUpload *bool
	runFit      *bool
	runDump     *string
)

func init() {
	runWaves = runCmd.Flags().StringArray("wave", nil, "Also render the named wave, can be given multiple times.")
	runFrom = runCmd.Flags().String("from", "", "Also render a custom range starting at this date (YYYY-MM-DD).")
	runTo = runCmd.Flags().String("to", "", "End of the custom range (YYYY-MM-DD).")
	runOut = runCmd.Flags().String("out", "", "The directory to write the charts to, overrides charts.output_dir.")
	runSource = runCmd.Flags().String("source", pipeline.SOURCE_COUNTERS, "Where to read the counts from: counters or news.")
	runNoUpload = runCmd.Flags().Bool("no-upload", false, "Render the charts without publishing them.")
	runFit = runCmd.Flags().Bool("fit", false, "Overlay fitted logistic and exponential models.")
	runDump = runCmd.Flags().String("dump", "", "Write every exchange with the statistics site into this directory.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--wave <name>]... [--from YYYY-MM-DD --to YYYY-MM-DD] [--out <dir>] [--source counters|news] [--no-upload] [--fit]",
	Short: "Scrapes today's counts, then renders, publishes and records them.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		runCfg := cfg
		if *runFit {
			runCfg.Charts.Fit = true
		}
		if *runDump != "" {
			runCfg.Source.DumpDir = *runDump
		}
		if *runOut != "" {
			runCfg.Charts.OutputDir = *runOut
		}

		opts, err := pipelineOptions(runCfg, *runWaves)
		if err != nil {
			return err
		}
		if *runFrom != "" || *runTo != "" {
			window, err := parseRange(*runFrom, *runTo)
			if err != nil {
				return err
			}
			opts.Windows = append(opts.Windows, window)
		}
		opts.Source = *runSource
		opts.NoUpload = *runNoUpload

		tel, flush := setupTelemetry(ctx, runCfg)
		defer flush()

		p, s, err := openPipeline(ctx, runCfg, tel, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close()

		_, err = p.Run(ctx, opts)
		return err
	},
}
