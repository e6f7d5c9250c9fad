package commands

import (
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"covidcurve/internal/store"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	importCases  *string
	importDeaths *string
)

func init() {
	importCases = importCmd.Flags().String("cases", "covid_data.txt", "The legacy cumulative cases file.")
	importDeaths = importCmd.Flags().String("deaths", "covid_deaths.txt", "The legacy cumulative deaths file.")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import --cases <file> --deaths <file>",
	Short: "Imports the legacy two file format (DATE TOTAL +DELTA per line) into the store.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		series, err := store.ReadLegacy(*importCases, *importDeaths)
		if err != nil {
			return err
		}
		if len(series) == 0 {
			return fmt.Errorf("no observations in %s and %s", *importCases, *importDeaths)
		}

		s, err := store.Open(ctx, cfg.Store, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		defer s.Close()

		err = s.Append(ctx, series...)
		if err != nil {
			return err
		}
		slog.Info(
			"imported legacy series",
			"rows", len(series),
			"from", series[0].Date.Format(covid.DateLayout),
			"to", series[len(series)-1].Date.Format(covid.DateLayout),
		)
		return nil
	},
}
