package report

import (
	"covidcurve/internal/chart"
	"covidcurve/internal/covid"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// PublishedChart is a rendered chart and where it was published, URL is
// empty when uploading was skipped.
type PublishedChart struct {
	Chart chart.Chart
	Path  string
	URL   string
}

func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func delta(series covid.Series, metric covid.Metric) string {
	if len(series) < 2 {
		return "-"
	}
	last := series[len(series)-1].Value(metric)
	previous := series[len(series)-2].Value(metric)
	return fmt.Sprintf("%+d", last-previous)
}

// Summary writes the latest observation and the published charts as tables.
func Summary(w io.Writer, series covid.Series, charts []PublishedChart) {
	last, ok := series.Last()
	if ok {
		t := NewTable(w)
		t.AppendHeader(table.Row{"Date", "Cases", "New cases", "Deaths", "New deaths"})
		t.AppendRow(table.Row{
			last.Date.Format(covid.DateLayout),
			last.Cases,
			delta(series, covid.METRIC_CASES),
			last.Deaths,
			delta(series, covid.METRIC_DEATHS),
		})
		t.SetColumnConfigs([]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 3, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		})
		t.Render()
	}

	if len(charts) == 0 {
		return
	}

	t := NewTable(w)
	t.AppendHeader(table.Row{"Chart", "Window", "Daily growth", "Doubling (days)", "Logistic total", "URL"})
	for _, c := range charts {
		growth, doubling, total := "-", "-", "-"
		if c.Chart.Exponential != nil {
			growth = fmt.Sprintf("%.2f%%", (c.Chart.Exponential.DailyGrowth()-1)*100)
			doubling = fmt.Sprintf("%.1f", c.Chart.Exponential.DoublingDays())
		}
		if c.Chart.Logistic != nil {
			total = fmt.Sprintf("%.0f", c.Chart.Logistic.Total())
		}
		link := c.URL
		if link == "" {
			link = c.Path
		}
		t.AppendRow(table.Row{
			c.Chart.FileName(),
			c.Chart.Window.String(),
			growth,
			doubling,
			total,
			link,
		})
	}
	t.Render()
}
