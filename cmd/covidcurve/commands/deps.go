package commands

import (
	"context"
	"covidcurve/internal/chart"
	"covidcurve/internal/components/chrono"
	"covidcurve/internal/components/telemetry"
	"covidcurve/internal/config"
	"covidcurve/internal/covid"
	"covidcurve/internal/pipeline"
	"covidcurve/internal/publish"
	"covidcurve/internal/report"
	"covidcurve/internal/scrapers/koronavirus"
	"covidcurve/internal/store"
	"fmt"
	"io"
	"log/slog"
)

// setupTelemetry installs the otel exporters of the config, the returned
// function flushes them.
func setupTelemetry(ctx context.Context, cfg config.Config) (telemetry.API, func()) {
	otel, err := telemetry.Setup(ctx, "covidcurve", cfg.Telemetry)
	if err != nil {
		slog.Warn("failed to setup otel, continuing without it", "err", err)
	}
	return telemetry.SlogAPI{}, func() {
		err := otel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to flush otel", "err", err)
		}
	}
}

// openPipeline wires up a pipeline from the config. The store must be
// closed by the caller.
func openPipeline(ctx context.Context, cfg config.Config, tel telemetry.API, stdout, stderr io.Writer) (pipeline.Pipeline, store.Store, error) {
	clock, err := chrono.NewStandardImpl()
	if err != nil {
		return pipeline.Pipeline{}, nil, err
	}

	s, err := store.Open(ctx, cfg.Store, tel)
	if err != nil {
		return pipeline.Pipeline{}, nil, err
	}

	publisher, err := publish.Open(ctx, cfg.Publish, clock, tel)
	if err != nil {
		s.Close()
		return pipeline.Pipeline{}, nil, err
	}

	deps := pipeline.Deps{
		Fetcher:   koronavirus.NewClient(cfg.Source.ClientOptions(), tel),
		Extractor: koronavirus.NewCounterExtractor(cfg.Source.Counters.Cases, cfg.Source.Counters.Deaths),
		Store:     s,
		Renderer:  chart.NewRenderer(cfg.Charts.Options(), tel),
		Publisher: publisher,
		Clock:     clock,
		Tel:       tel,
		Stdout:    stdout,
		Stderr:    stderr,
	}
	if cfg.Report.Email.Enabled() {
		deps.Notifier = report.NewNotifier(cfg.Report.Email, tel)
	}
	return pipeline.New(deps), s, nil
}

func pipelineOptions(cfg config.Config, waves []string) (pipeline.Options, error) {
	windows, err := cfg.Windows()
	if err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Source:       pipeline.SOURCE_COUNTERS,
		SourceUrl:    cfg.Source.Url,
		NewsUrl:      cfg.Source.NewsUrl,
		MaxNewsPages: cfg.Source.MaxNewsPages,
		OutputDir:    cfg.Charts.OutputDir,
		Readme:       cfg.Report.Readme,
	}
	for _, name := range waves {
		window, err := covid.FindWindow(windows, name)
		if err != nil {
			return pipeline.Options{}, err
		}
		opts.Windows = append(opts.Windows, window)
	}
	return opts, nil
}

func parseRange(from, to string) (covid.Window, error) {
	var window covid.Window
	var err error
	if from != "" {
		window.From, err = covid.ParseDate(from)
		if err != nil {
			return covid.Window{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		window.To, err = covid.ParseDate(to)
		if err != nil {
			return covid.Window{}, fmt.Errorf("--to: %w", err)
		}
	}
	if !window.From.IsZero() && !window.To.IsZero() && window.To.Before(window.From) {
		return covid.Window{}, fmt.Errorf("--to is before --from")
	}
	return window, nil
}
