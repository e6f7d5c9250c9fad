package commands

import (
	"covidcurve/internal/components/chrono"
	"covidcurve/internal/components/telemetry"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

var scheduleCron *string

func init() {
	scheduleCron = scheduleCmd.Flags().String("cron", "", "The cron spec to run on, overrides schedule.cron.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [--cron <spec>]",
	Short: "Runs the pipeline on a cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec := cfg.Schedule.Cron
		if *scheduleCron != "" {
			spec = *scheduleCron
		}
		if spec == "" {
			return fmt.Errorf("no cron spec configured")
		}

		opts, err := pipelineOptions(cfg, nil)
		if err != nil {
			return err
		}

		tel, flush := setupTelemetry(ctx, cfg)
		defer flush()
		telemetry.InstrumentPerfStats(ctx, tel, time.Minute)

		p, s, err := openPipeline(ctx, cfg, tel, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer s.Close()

		clock, err := chrono.NewStandardImpl()
		if err != nil {
			return err
		}
		cron := chrono.NewStandardCron(tel, clock)
		defer cron.Stop()

		err = cron.Cron(spec, func() {
			_, err := p.Run(ctx, opts)
			if err != nil {
				tel.ReportBroken("schedule.run", err)
			}
		})
		if err != nil {
			return fmt.Errorf("schedule %q: %w", spec, err)
		}

		slog.Info("scheduled", "cron", spec, "location", clock.Location().String())
		<-ctx.Done()
		return nil
	},
}
