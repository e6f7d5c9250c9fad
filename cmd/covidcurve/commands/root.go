package commands

import (
	"context"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/config"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

// loaded by the root command before any subcommand runs
var cfg config.Config

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The configuration file, config.local.json5 next to it overrides it. Without the flag, config.json5 is looked up from the working directory upwards.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
}

var rootCmd = &cobra.Command{
	Use:           "covidcurve",
	Short:         "covidcurve scrapes Hungary's COVID-19 statistics and publishes charts of them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(*verbose)

		var err error
		if cmd.Flags().Changed("config") {
			cfg, err = config.Read(*configPath)
		} else {
			cfg, err = config.Find(*configPath)
		}
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
