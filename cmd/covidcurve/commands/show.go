package commands

import (
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/covid"
	"covidcurve/internal/report"
	"covidcurve/internal/store"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var (
	showWave   *string
	showMetric *string
)

func init() {
	showWave = showCmd.Flags().String("wave", "", "Only show the observations of the named wave.")
	showMetric = showCmd.Flags().String("metric", "", "Only show one metric: cases or deaths.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show [--wave <name>] [--metric cases|deaths]",
	Short: "Prints the stored series as a table.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var window covid.Window
		if *showWave != "" {
			windows, err := cfg.Windows()
			if err != nil {
				return err
			}
			window, err = covid.FindWindow(windows, *showWave)
			if err != nil {
				return err
			}
		}

		metrics := []covid.Metric{covid.METRIC_CASES, covid.METRIC_DEATHS}
		if *showMetric != "" {
			metric, err := covid.ParseMetric(*showMetric)
			if err != nil {
				return err
			}
			metrics = []covid.Metric{metric}
		}

		s, err := store.Open(ctx, cfg.Store, telemetry.SlogAPI{})
		if err != nil {
			return err
		}
		defer s.Close()

		series, err := s.LoadAll(ctx)
		if err != nil {
			return err
		}
		series = series.Window(window)

		header := table.Row{"Date"}
		for _, m := range metrics {
			header = append(header, m.String(), "New "+m.String())
		}

		t := report.NewTable(cmd.OutOrStdout())
		t.AppendHeader(header)
		for i, o := range series {
			row := table.Row{o.Date.Format(covid.DateLayout)}
			for _, m := range metrics {
				delta := ""
				if i > 0 {
					delta = fmt.Sprintf("%+d", o.Value(m)-series[i-1].Value(m))
				}
				row = append(row, o.Value(m), delta)
			}
			t.AppendRow(row)
		}

		footer := make(table.Row, len(header))
		for i := range footer {
			footer[i] = ""
		}
		footer[len(footer)-2] = "Rows"
		footer[len(footer)-1] = len(series)
		t.AppendFooter(footer)

		var columns []table.ColumnConfig
		for number := 2; number <= len(header); number++ {
			columns = append(columns, table.ColumnConfig{Number: number, Align: text.AlignRight})
		}
		t.SetColumnConfigs(columns)
		t.Render()
		return nil
	},
}
